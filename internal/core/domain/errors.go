// Package domain defines the core domain models for lexdesk.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a session-layer error with a structured error code.
//
// Codes follow the LX-{AREA}-{NNNN} layout, where the numeric part mirrors
// the closest HTTP status so screens can map them without a lookup table.
type DomainError struct {
	Code    string // Error code (e.g., "LX-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details (usually the backend's message)
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
// Two DomainErrors match when their codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrInvalidCredentials indicates the backend rejected the login (401).
	ErrInvalidCredentials = NewDomainError("LX-AUTH-4010", "invalid credentials")

	// ErrTokenExpiredOrMalformed indicates the stored token failed the local decode check.
	ErrTokenExpiredOrMalformed = NewDomainError("LX-AUTH-4011", "token expired or malformed")

	// ErrAuthorizationLost indicates an authenticated call was rejected with 401.
	ErrAuthorizationLost = NewDomainError("LX-AUTH-4012", "authorization lost")

	// ErrValidationFailed indicates malformed input, either from the local
	// pre-check or from a 422 response.
	ErrValidationFailed = NewDomainError("LX-AUTH-4220", "validation failed")

	// ErrAlreadyExists indicates the identity is already registered.
	ErrAlreadyExists = NewDomainError("LX-AUTH-4090", "account already exists")

	// ErrOperationInProgress indicates a concurrent login/register was rejected.
	ErrOperationInProgress = NewDomainError("LX-AUTH-4091", "operation in progress")

	// ErrOperationSuperseded indicates an async result was discarded because a
	// logout happened while it was in flight.
	ErrOperationSuperseded = NewDomainError("LX-AUTH-4099", "operation superseded by logout")
)

// ============================================================================
// Transport Errors (NET)
// ============================================================================

var (
	// ErrNetworkUnavailable indicates a transport failure or timeout.
	ErrNetworkUnavailable = NewDomainError("LX-NET-5030", "network unavailable")

	// ErrUnexpectedResponse indicates the backend answered with a status or
	// body the adapter does not understand.
	ErrUnexpectedResponse = NewDomainError("LX-NET-5020", "unexpected backend response")
)

// ============================================================================
// Storage Errors (STORE)
// ============================================================================

var (
	// ErrStorageUnavailable indicates the durable token slot could not be read or written.
	ErrStorageUnavailable = NewDomainError("LX-STORE-5000", "token storage unavailable")
)

// userFacing lists codes a form renders inline. Everything else is either
// handled silently (forced logout) or is a programming error.
var userFacing = map[string]bool{
	ErrInvalidCredentials.Code: true,
	ErrValidationFailed.Code:   true,
	ErrAlreadyExists.Code:      true,
	ErrNetworkUnavailable.Code: true,
	ErrUnexpectedResponse.Code: true,
	ErrStorageUnavailable.Code: true,
}

// IsUserFacing reports whether err should be shown next to the form that
// triggered it.
func IsUserFacing(err error) bool {
	return userFacing[GetErrorCode(err)]
}
