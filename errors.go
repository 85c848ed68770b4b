package gocrm

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure returned by this package.
type ErrorCode string

const (
	// ErrCodeInvalidState means the state (UF) is missing or unknown.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeInvalidCRM means the registration number contains non-digits.
	ErrCodeInvalidCRM ErrorCode = "INVALID_CRM"

	// ErrCodeInvalidName means a name was given but it is empty.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"

	// ErrCodeNetwork means the request never produced a usable response.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"

	// ErrCodeUpstream means the API answered with a non-success status.
	ErrCodeUpstream ErrorCode = "API_ERROR"
)

// Error is the single error type returned by searches.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error

	// Status is the portal's status discriminator. Set only for ErrCodeUpstream.
	Status string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gocrm [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("gocrm [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, &gocrm.Error{Code: gocrm.ErrCodeInvalidState}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err. It returns "" when err is nil or
// was not produced by this package.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
