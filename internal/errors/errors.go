package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common error types for the account service
var (
	// Client input errors
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateEmail = errors.New("email already in use")

	// Authentication errors
	ErrInvalidCredentials = errors.New("unable to login")
	ErrUnauthenticated    = errors.New("please authenticate")

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Notification errors, never surfaced past the notifier
	ErrTransport = errors.New("notification transport failed")
)

// ValidationError carries per-field detail for rejected input.
// errors.Is(err, ErrValidation) is true for every ValidationError.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with a single field message
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first message per field
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = message
	}
}

// Empty reports whether no field has failed
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
