// Package apperrors defines the structural error kinds surfaced by the
// pipeline, the store and the query API.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error that must abort a run or be reported to a client
type Kind string

// Error kinds
const (
	SourceUnreadable   Kind = "SourceUnreadable"
	SchemaMismatch     Kind = "SchemaMismatch"
	PersistenceFailure Kind = "PersistenceFailure"
	NotFound           Kind = "NotFound"
	InvalidParameter   Kind = "InvalidParameter"
)

// Error implements the error interface so a bare Kind can be used as a target
// for errors.Is.
func (k Kind) Error() string {
	return string(k)
}

// Error is a classified error carrying the failing operation and its cause
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New creates a classified error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a classified error with a formatted cause
func Newf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first classified error in err's chain.
// Unclassified errors report an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
