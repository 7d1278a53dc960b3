package database

import (
	"errors"
	"regexp"
)

// ErrUniqueViolation is wrapped into any write failure caused by a
// duplicate primary key, so bulk-insert callers can distinguish
// it from every other write failure.
var ErrUniqueViolation = errors.New("database: unique constraint violated")

var uniquePattern = regexp.MustCompile(`UNIQUE constraint failed`)

// StoreError wraps a raw driver error with a stable classification.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string { return e.Cause.Error() }
func (e *StoreError) Unwrap() error { return e.Cause }

// Wrap classifies a raw *sql driver error, tagging unique-constraint
// failures distinctly per ("duplicate-key errors are classified
// distinctly from all other write failures").
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if uniquePattern.MatchString(err.Error()) {
		return &StoreError{Cause: errors.Join(ErrUniqueViolation, err)}
	}
	return &StoreError{Cause: err}
}

// IsUniqueViolation reports whether err (or anything it wraps) is a
// duplicate-key failure.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// CollectionNotFoundError signals that the named data-namespace table does
// not exist (the collection was never registered or was already dropped).
type CollectionNotFoundError struct {
	Name string
}

func (e *CollectionNotFoundError) Error() string {
	return "database: collection not found: " + e.Name
}

// NewCollectionNotFound builds a CollectionNotFoundError for name.
func NewCollectionNotFound(name string) error {
	return &CollectionNotFoundError{Name: name}
}

// IsCollectionNotFound reports whether err is a CollectionNotFoundError.
func IsCollectionNotFound(err error) bool {
	var e *CollectionNotFoundError
	return errors.As(err, &e)
}
