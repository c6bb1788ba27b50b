package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dom "Directory/internal/domain"
)

// ErrNotFound is returned by lookups when no account matches.
var ErrNotFound = errors.New("account not found")

// AccountRepo provides account persistence. Implementations must enforce
// uniqueness of username and email atomically with Insert.
type AccountRepo interface {
	Insert(ctx context.Context, a dom.Account) (dom.Account, error)
	GetByID(ctx context.Context, id int64) (dom.Account, error)
	GetByUsername(ctx context.Context, username string) (dom.Account, error)
	GetByEmail(ctx context.Context, email string) (dom.Account, error)
	List(ctx context.Context) ([]dom.Account, error)
}

// ConstraintViolation is returned by Insert when a unique constraint rejects the row.
// Field is set when the backend identifies the violated column; Detail carries
// the raw driver message either way.
type ConstraintViolation struct {
	Constraint string
	Field      string
	Detail     string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	var b strings.Builder
	b.WriteString("unique constraint violation")
	if e.Constraint != "" {
		fmt.Fprintf(&b, " on %s", e.Constraint)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// fieldForConstraint maps a constraint or column name to the account field it guards.
func fieldForConstraint(name string) string {
	n := strings.ToLower(name)
	switch {
	case n == "":
		return ""
	case strings.Contains(n, "email"):
		return dom.FieldEmail
	case strings.Contains(n, "username"):
		return dom.FieldUsername
	}
	return ""
}
