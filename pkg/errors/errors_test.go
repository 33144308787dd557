package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidInput, "alpha %g outside [0, 1]", 1.5)
	if got, want := err.Error(), "INVALID_INPUT: alpha 1.5 outside [0, 1]"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("iteration budget exhausted")
	wrapped := Wrap(ErrCodeNotConverged, cause, "embed %d vertices", 12)
	if got, want := wrapped.Error(), "NOT_CONVERGED: embed 12 vertices: iteration budget exhausted"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, cause) || errors.Unwrap(wrapped) != cause {
		t.Error("Wrap should keep the cause reachable")
	}
}

func TestIs(t *testing.T) {
	timeout := New(ErrCodeTimeout, "time limit")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct", New(ErrCodeInvalidInput, "x"), ErrCodeInvalidInput, true},
		{"other code", New(ErrCodeInvalidInput, "x"), ErrCodeTimeout, false},
		{"outer of chain", Wrap(ErrCodeNotConverged, timeout, "embed"), ErrCodeNotConverged, true},
		{"inner of chain", Wrap(ErrCodeNotConverged, timeout, "embed"), ErrCodeTimeout, true},
		{"through fmt", fmt.Errorf("iteration 7: %w", timeout), ErrCodeTimeout, true},
		{"plain", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("solve: %w", Wrap(ErrCodeCapacityViolation, New(ErrCodeInvalidInput, "inner"), "merge (2,0) (2,1)"))
	if got := GetCode(err); got != ErrCodeCapacityViolation {
		t.Errorf("GetCode() = %v, want outermost code", got)
	}
	if got := UserMessage(err); got != "merge (2,0) (2,1)" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInstance, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{New(ErrCodeNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{New(ErrCodeNotConverged, "x"), http.StatusUnprocessableEntity},
		{New(ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{New(ErrCodeInternal, "x"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
