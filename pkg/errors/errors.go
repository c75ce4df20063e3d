// Package errors provides structured error types for platepack.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the solvers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_*: Resource not found
//   - INFEASIBLE / TIMEOUT_*: Solver verdicts that carry no packing
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInstance, "circuit %d has zero width", k)
//	if errors.Is(err, errors.ErrCodeInvalidInstance) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSolver, origErr, "check failed at length %d", l)
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidInstance Code = "INVALID_INSTANCE"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle    Code = "INVALID_STYLE"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidSolution Code = "INVALID_SOLUTION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"

	// Solver verdicts
	ErrCodeInfeasible        Code = "INFEASIBLE"
	ErrCodeTimeout           Code = "TIMEOUT"
	ErrCodeTimeoutNoSolution Code = "TIMEOUT_NO_SOLUTION"
	ErrCodeSolver            Code = "SOLVER_ERROR"

	// Backend errors
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// coder is implemented by error types that carry a Code without being
// an *Error, such as *TimeoutError.
type coder interface {
	Code() Code
}

// code finds the first code on err's chain.
func code(err error) (Code, bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		switch e := err.(type) {
		case *Error:
			return e.Code, true
		case coder:
			return e.Code(), true
		}
	}
	return "", false
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a
// matching code.
func Is(err error, c Code) bool {
	got, ok := code(err)
	return ok && got == c
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if nothing on the chain carries a code.
func GetCode(err error) Code {
	c, _ := code(err)
	return c
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

// TimeoutError reports a time budget that ran out before any packing was
// found. Its code is TIMEOUT_NO_SOLUTION.
type TimeoutError struct {
	Budget time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout after %s: no packing found", ErrCodeTimeoutNoSolution, e.Budget)
}

// Code returns the error code for this error type.
func (e *TimeoutError) Code() Code {
	return ErrCodeTimeoutNoSolution
}
