// Package nilerrors is the tagged error taxonomy for the node. Every error
// that should surface at the HTTP boundary with a specific status code
// carries one of the Kind values below; everywhere else in the core errors
// propagate with %w rather than being caught: a split between "this needs
// a stable tag" and "everything else bubbles up."
package nilerrors

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error tag.
type Kind string

const (
	CollectionNotFound   Kind = "CollectionNotFound"
	DocumentNotFound     Kind = "DocumentNotFound"
	DuplicateEntry       Kind = "DuplicateEntry"
	DataValidation       Kind = "DataValidation"
	VariableInjection    Kind = "VariableInjection"
	QueryValidation      Kind = "QueryValidation"
	ResourceAccessDenied Kind = "ResourceAccessDenied"
	Unauthorized         Kind = "Unauthorized"
	PaymentRequired      Kind = "PaymentRequired"
	Forbidden            Kind = "Forbidden"
	Timeout              Kind = "Timeout"
	DatabaseError        Kind = "DatabaseError"
	InvalidIndexOptions  Kind = "InvalidIndexOptions"
)

// Error carries a machine-readable Kind, a developer message and an
// optional cause. It is the only error type the core core mints directly;
// everything else is wrapped from a lower layer.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a tagged error with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a tagged error around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf is New with fmt-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// As extracts the *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
