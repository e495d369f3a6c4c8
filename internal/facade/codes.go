package facade

import (
	"errors"

	"github.com/populare/dbproxy/internal/store"
)

// Machine-readable error codes shared by every transport.
const (
	CodeSchemaNotInitialized = "SCHEMA_NOT_INITIALIZED"
	CodeIntegrityViolation   = "INTEGRITY_VIOLATION"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeInternal             = "INTERNAL"
)

// ErrorCode classifies an error returned by the facade.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrSchemaNotInitialized):
		return CodeSchemaNotInitialized
	case errors.Is(err, store.ErrIntegrityViolation):
		return CodeIntegrityViolation
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}
