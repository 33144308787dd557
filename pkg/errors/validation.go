package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateUnitInterval checks that v is a finite number in [0, 1].
// The name is used in the error message.
func ValidateUnitInterval(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", name, v)
	}
	if v < 0 || v > 1 {
		return New(ErrCodeInvalidInput, "%s must lie in [0, 1], got %v", name, v)
	}
	return nil
}

// ValidateUnitSquare checks that (x, y) lies inside [0, 1]².
func ValidateUnitSquare(name string, x, y float64) error {
	if err := ValidateUnitInterval(name+".x", x); err != nil {
		return err
	}
	return ValidateUnitInterval(name+".y", y)
}

// ValidatePositive checks that v is a finite, strictly positive number.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidOptions, "%s must be a positive number, got %v", name, v)
	}
	return nil
}

// ValidatePath validates a relative file path supplied through the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid control characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "path cannot contain '..'")
		}
	}
	return nil
}
