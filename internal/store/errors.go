package store

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Store operation matches exactly one
// of these with errors.Is.
var (
	// ErrSchemaNotInitialized means the posts table does not exist.
	// Only InitSchema creates it; no other operation heals this condition.
	ErrSchemaNotInitialized = errors.New("schema not initialized")

	// ErrIntegrityViolation means a uniqueness, not-null or length constraint
	// rejected the write. Nothing was persisted.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInfrastructure means the backing engine could not complete the
	// operation (connection loss, lock timeout, cancelled context, ...).
	// The store never retries.
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Error describes a failed store operation.
//
// Unwrap exposes both the kind sentinel and the driver error, so callers can
// use errors.Is against the sentinels and errors.As against driver types.
type Error struct {
	// Op is the operation that failed ("create post", "read posts", ...).
	Op string

	// Kind is one of ErrSchemaNotInitialized, ErrIntegrityViolation or
	// ErrInfrastructure.
	Kind error

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsSchemaNotInitialized reports whether err means the table is missing.
func IsSchemaNotInitialized(err error) bool {
	return errors.Is(err, ErrSchemaNotInitialized)
}

// IsIntegrityViolation reports whether err is a constraint failure.
func IsIntegrityViolation(err error) bool {
	return errors.Is(err, ErrIntegrityViolation)
}

// wrapError classifies err with the dialect and returns a *Error.
// Errors that are already classified pass through untouched.
func wrapError(d Dialect, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	kind := ErrInfrastructure
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		if k := d.Classify(err); k != nil {
			kind = k
		}
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
