package model

import (
	"errors"
	"fmt"
)

// MaxContentLen is the platform's comment length limit, mirrored client-side
// so oversized content never reaches the wire.
const MaxContentLen = 5000

// Sentinel errors mapped from the platform API's failure responses.
var (
	// ErrAuthRequired means the caller has no valid session (HTTP 401).
	// For submissions this is not an error path: the controller stashes the
	// draft and redirects to the authentication entry point instead.
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden means the caller does not own the target comment (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the target post or comment no longer exists (HTTP 404).
	ErrNotFound = errors.New("not found")
)

// ValidationError reports content rejected either client-side before dispatch
// or by the server with HTTP 422.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// ServerError covers 5xx responses and transport failures. Retry is always
// manual; the client never resubmits automatically.
type ServerError struct {
	StatusCode int // 0 for transport-level failures.
	Message    string
}

func (e *ServerError) Error() string {
	if e.StatusCode == 0 {
		return "server error: " + e.Message
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// ValidateContent applies the client-side checks the server echoes: content
// must be non-empty and within MaxContentLen.
func ValidateContent(content string) error {
	if content == "" {
		return &ValidationError{Message: "content must not be empty"}
	}
	if len(content) > MaxContentLen {
		return &ValidationError{Message: fmt.Sprintf("content exceeds %d characters", MaxContentLen)}
	}
	return nil
}
