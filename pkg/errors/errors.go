// Package errors provides structured error types for topoview.
//
// Every error that reaches a user (the terminal banner, the HTTP API, the
// CLI exit path) carries a [Code]. A poll cycle can end in two failure
// classes:
//   - FETCH_ERROR: the backend could not be reached or answered non-2xx
//   - SCHEMA_ERROR: the backend answered but the document is incomplete
//
// Both leave the previously displayed scene in place. DANGLING_REFERENCE
// only tags diagnostics; it never fails an operation.
//
//	err := errors.New(errors.ErrCodeSchema, "missing required collection %q", "storage")
//	if errors.IsSchema(err) {
//	    // keep the old scene
//	}
//
// The package shadows the standard library name on purpose. Import the
// standard package under another name where both are needed.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeSchema            Code = "SCHEMA_ERROR"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"
	ErrCodeFetch             Code = "FETCH_ERROR"

	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// ErrCodeNotReady is returned while no scene has been built yet.
	ErrCodeNotReady Code = "NOT_READY"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// HTTPStatus maps c to the status the HTTP API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNotReady, ErrCodeFetch, ErrCodeSchema:
		// Upstream problems: the viewer itself is fine, the topology is not.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether the outermost *Error in err's chain has code. A
// SCHEMA error wrapped as a FETCH error reports FETCH.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// IsSchema reports whether err is a malformed or incomplete document.
func IsSchema(err error) bool { return Is(err, ErrCodeSchema) }

// IsFetch reports whether err is a transport-level failure.
func IsFetch(err error) bool { return Is(err, ErrCodeFetch) }

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// CodeOr is like GetCode but returns fallback for uncoded errors.
func CodeOr(err error, fallback Code) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	return fallback
}

// UserMessage returns the message without the code prefix or cause. Plain
// errors are returned as their Error string.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
