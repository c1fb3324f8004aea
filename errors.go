package viewcache

import (
	"errors"
	"fmt"
)

// ValidationError is a mutation rejected by the server (4xx other than 404).
// Message carries the server-provided human-readable body when available.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mutation rejected (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mutation rejected (%d)", e.StatusCode)
}

// NotFoundError means the target entity no longer exists server-side (404).
// The data layer responds by removing the entity from the local sequence.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found", e.ID)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// userMessage extracts the server-provided message for a toast, falling back
// to a generic one for transient/opaque failures.
func userMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return "this item no longer exists"
	}
	return "something went wrong, please try again"
}
