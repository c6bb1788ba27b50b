package service

import (
	"strings"

	dom "Directory/internal/domain"
	"Directory/internal/repo"
)

// duplicateFieldFor decides which unique field a constraint violation refers to.
//
// A field named by the store wins. Otherwise the raw detail is searched for the
// attempted values, email first. When neither value appears the result falls
// back to username, which may be wrong for stores that report no constraint
// identity at all.
func duplicateFieldFor(cv *repo.ConstraintViolation, a dom.Account) *dom.DuplicateField {
	switch cv.Field {
	case dom.FieldEmail:
		return &dom.DuplicateField{Field: dom.FieldEmail, Value: a.Email}
	case dom.FieldUsername:
		return &dom.DuplicateField{Field: dom.FieldUsername, Value: a.Username}
	}

	raw := cv.Detail
	if raw == "" && cv.Err != nil {
		raw = cv.Err.Error()
	}
	if a.Email != "" && strings.Contains(raw, a.Email) {
		return &dom.DuplicateField{Field: dom.FieldEmail, Value: a.Email}
	}
	if a.Username != "" && strings.Contains(raw, a.Username) {
		return &dom.DuplicateField{Field: dom.FieldUsername, Value: a.Username}
	}
	return &dom.DuplicateField{Field: dom.FieldUsername, Value: a.Username}
}
