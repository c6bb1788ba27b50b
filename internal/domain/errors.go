package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the coarse classification every service error falls into.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation_error"
	KindDuplicateField ErrorKind = "duplicate_field"
	KindNotFound       ErrorKind = "not_found"
	KindUnavailable    ErrorKind = "unavailable"
)

const (
	FieldID       = "id"
	FieldUsername = "username"
	FieldEmail    = "email"
)

// EntityAccount is the entity name used in NotFound messages.
const EntityAccount = "Account"

// ValidationError means the caller violated a precondition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// DuplicateField means a uniqueness constraint on Field rejected Value.
type DuplicateField struct {
	Field string
	Value string
}

func (e *DuplicateField) Error() string {
	return fmt.Sprintf("%s '%s' is already in use", e.Field, e.Value)
}

func (e *DuplicateField) Kind() ErrorKind { return KindDuplicateField }

// NotFound is returned by lookups that assert existence.
type NotFound struct {
	Entity string
	Field  string
	Value  string
}

func (e *NotFound) Error() string {
	entity := e.Entity
	if entity == "" {
		entity = EntityAccount
	}
	return fmt.Sprintf("%s not found with %s: %s", entity, e.Field, e.Value)
}

func (e *NotFound) Kind() ErrorKind { return KindNotFound }

// Unavailable wraps a store failure unrelated to domain rules.
type Unavailable struct {
	Op  string
	Err error
}

func (e *Unavailable) Error() string {
	if e.Err == nil {
		return e.Op + ": store unavailable"
	}
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *Unavailable) Unwrap() error { return e.Err }

func (e *Unavailable) Kind() ErrorKind { return KindUnavailable }

type kinded interface {
	Kind() ErrorKind
}

// KindOf classifies err. Errors outside the taxonomy are reported as unavailable.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnavailable
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
