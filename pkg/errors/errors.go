// Package errors provides structured error types for mvnfetch.
//
// Every failure that leaves the resolution engine carries a [Code] so that
// callers (the CLI, the HTTP gateway) can map it to an exit status or a
// response code without string matching.
//
// # Error Codes
//
//   - MALFORMED_REFERENCE: bad artifact reference syntax. Fatal, never retried.
//   - REPOSITORY_UNAVAILABLE: one repository could not be reached. Recoverable,
//     the resolver moves on to the next candidate.
//   - METADATA_UNRESOLVABLE: maven-metadata.xml was missing or unusable for
//     one repository. Recoverable, same handling.
//   - NOT_FOUND: every candidate repository was tried.
//   - CACHE_WRITE_FAILURE: the local repository could not be written.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedReference, "missing group in %q", ref)
//	if errors.Is(err, errors.ErrCodeMalformedReference) {
//	    // reject the request
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRepositoryUnavailable, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeMalformedReference Code = "MALFORMED_REFERENCE"
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Per-repository errors, recoverable while candidates remain
	ErrCodeRepositoryUnavailable Code = "REPOSITORY_UNAVAILABLE"
	ErrCodeMetadataUnresolvable  Code = "METADATA_UNRESOLVABLE"

	// Terminal errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeCacheWriteFailure Code = "CACHE_WRITE_FAILURE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err only disqualifies a single repository
// candidate. Recoverable errors never abort a resolution while untried
// candidates remain.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeRepositoryUnavailable, ErrCodeMetadataUnresolvable, ErrCodeNotFound:
		return true
	}
	return false
}

// NotFoundError is returned when every candidate repository failed.
// Attempted lists the repository ids in the order they were tried.
type NotFoundError struct {
	Reference string
	Attempted []string
	Last      error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: %s not found in %d repositories (last error: %v)", ErrCodeNotFound, e.Reference, len(e.Attempted), e.Last)
	}
	return fmt.Sprintf("%s: %s not found in %d repositories", ErrCodeNotFound, e.Reference, len(e.Attempted))
}

// Unwrap exposes the NOT_FOUND code so Is(err, ErrCodeNotFound) holds.
func (e *NotFoundError) Unwrap() error {
	return &Error{Code: ErrCodeNotFound, Message: e.Reference, Cause: e.Last}
}
