// Package errors defines the code-tagged errors that Flamecast returns
// across package boundaries.
//
// A [Code] says what kind of failure occurred independently of the message:
// INVALID_* for input rejected before annealing starts, NOT_CONVERGED and
// TIMEOUT for an exhausted embedder budget, CAPACITY_VIOLATION for a
// neighbor applied against its own predicate. The CLI prints
// [UserMessage] with the code and the HTTP API maps codes to statuses with
// [HTTPStatus].
//
//	err := errors.New(errors.ErrCodeInvalidInput, "capacities has %d entries, want %d", n, layers)
//	if errors.Is(err, errors.ErrCodeInvalidInput) { ... }
//
//	err = errors.Wrap(errors.ErrCodeNotConverged, err, "embed layer graph")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidInstance Code = "INVALID_INSTANCE"
	ErrCodeInvalidOptions  Code = "INVALID_OPTIONS"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"

	// Solver errors
	ErrCodeNotConverged Code = "NOT_CONVERGED"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Topology errors
	ErrCodeCapacityViolation Code = "CAPACITY_VIOLATION"
	ErrCodeInvalidTopology   Code = "INVALID_TOPOLOGY"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a failure tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain carries code. A wrapped
// TIMEOUT inside a NOT_CONVERGED error therefore matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
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

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

var httpStatus = map[Code]int{
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInvalidInstance:   http.StatusBadRequest,
	ErrCodeInvalidOptions:    http.StatusBadRequest,
	ErrCodeInvalidFormat:     http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeFileNotFound:      http.StatusNotFound,
	ErrCodeNotConverged:      http.StatusUnprocessableEntity,
	ErrCodeCapacityViolation: http.StatusInternalServerError,
	ErrCodeInvalidTopology:   http.StatusInternalServerError,
	ErrCodeTimeout:           http.StatusGatewayTimeout,
	ErrCodeUnsupported:       http.StatusNotImplemented,
}

// HTTPStatus maps the code of err to the status the API answers with.
// Uncoded errors are internal errors.
func HTTPStatus(err error) int {
	if status, ok := httpStatus[GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
