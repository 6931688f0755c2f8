package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the capability engine. Callers branch with errors.Is;
// wrapped messages carry the operation and identifiers for diagnosability.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrTransport    = errors.New("transport failure")
	ErrValidation   = errors.New("validation failure")
	ErrPartialSync  = errors.New("partial sync failure")
)

// NotFound wraps ErrNotFound with the entity kind and identifier.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// AccessDenied wraps ErrAccessDenied with the denied subject and resource.
func AccessDenied(tenantID, resource string) error {
	return fmt.Errorf("tenant %q denied on %q: %w", tenantID, resource, ErrAccessDenied)
}

// Transport wraps an underlying network/5xx/timeout error as ErrTransport.
func Transport(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrTransport)
}

// Validation wraps ErrValidation with field context.
func Validation(field, reason string) error {
	return fmt.Errorf("field %q: %s: %w", field, reason, ErrValidation)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAccessDenied reports whether err is or wraps ErrAccessDenied.
func IsAccessDenied(err error) bool { return errors.Is(err, ErrAccessDenied) }

// IsTransport reports whether err is or wraps ErrTransport.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }
