package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date parses a JSON date as either date-only ("2006-01-02") or RFC3339 and
// always marshals as date-only. Zero value means "not supplied".
type Date struct{ t time.Time }

// NewDate wraps t, dropping the time of day.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		dateLayout,
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			*d = NewDate(parsed)
			return nil
		}
	}
	return fmt.Errorf("joinedOn: use date (YYYY-MM-DD) or RFC3339 datetime")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.Format(dateLayout))
}

// Time returns the wrapped date, zero when not supplied.
func (d Date) Time() time.Time { return d.t }

// CreateAccountRequest is the JSON body for POST /accounts.
// ID is accepted only so the service can reject it.
type CreateAccountRequest struct {
	ID          *int64 `json:"id,omitempty" swaggerignore:"true"`
	Username    string `json:"username" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,max=254"`
	DisplayName string `json:"displayName" binding:"max=200"`
	Location    string `json:"location" binding:"max=200"`
	JoinedOn    Date   `json:"joinedOn" swaggertype:"string" example:"2026-01-31"`
}

type AccountResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Location    string `json:"location"`
	JoinedOn    Date   `json:"joinedOn" swaggertype:"string" example:"2026-01-31"`
}

type ListAccountsResponse struct {
	Items []AccountResponse `json:"items"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	StatusCode int       `json:"statusCode"`
	ErrorKind  string    `json:"errorKind"`
	Message    string    `json:"message"`
}
