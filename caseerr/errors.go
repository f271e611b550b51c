// Package caseerr defines the error taxonomy of the casework core. Every
// error is recoverable at the boundary and maps to a user-facing message.
package caseerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound                    Code = "NOT_FOUND"
	CodeInvalidTransition           Code = "INVALID_TRANSITION"
	CodeCannotModifyRequired        Code = "CANNOT_MODIFY_REQUIRED"
	CodeInvalidInput                Code = "INVALID_INPUT"
	CodeIncompleteRequiredDocuments Code = "INCOMPLETE_REQUIRED_DOCUMENTS"
	CodeLockedBySubmission          Code = "LOCKED_BY_SUBMISSION"
	CodeFileReadFailed              Code = "FILE_READ_FAILED"
)

// Sentinels for errors.Is matching by code.
var (
	ErrNotFound                    = &Error{Code: CodeNotFound}
	ErrInvalidTransition           = &Error{Code: CodeInvalidTransition}
	ErrCannotModifyRequired        = &Error{Code: CodeCannotModifyRequired}
	ErrInvalidInput                = &Error{Code: CodeInvalidInput}
	ErrIncompleteRequiredDocuments = &Error{Code: CodeIncompleteRequiredDocuments}
	ErrLockedBySubmission          = &Error{Code: CodeLockedBySubmission}
	ErrFileReadFailed              = &Error{Code: CodeFileReadFailed}
)

// Error is a coded casework error.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message for logs
	Metadata map[string]string // Additional context (case id, document id, ...)
	Missing  []string          // Missing document ids, for IncompleteRequiredDocuments
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return strings.ToLower(string(e.Code))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates an error carrying context for the boundary.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Incomplete reports the required documents still missing for a role.
func Incomplete(role string, missing []string) *Error {
	return &Error{
		Code:     CodeIncompleteRequiredDocuments,
		Message:  fmt.Sprintf("%s is missing required documents: %s", role, strings.Join(missing, ", ")),
		Metadata: map[string]string{"role": role},
		Missing:  missing,
	}
}

// CodeOf extracts the code of err, or "" if err is not a casework error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MissingOf returns the missing document ids carried by err, if any.
func MissingOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Missing
	}
	return nil
}
