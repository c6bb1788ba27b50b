package domain

import "time"

// Account is the domain entity for a directory account holder.
// Не зависит от Gin, Postgres, Redis.
type Account struct {
	ID          int64
	Username    string
	Email       string
	DisplayName string
	Location    string
	JoinedOn    time.Time
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
