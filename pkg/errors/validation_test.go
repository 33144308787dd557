package errors

import (
	"math"
	"testing"
)

func TestValidateUnitInterval(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"middle", 0.5, false},
		{"negative", -0.1, true},
		{"above one", 1.01, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnitInterval("alpha", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUnitInterval(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT code, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateUnitSquare(t *testing.T) {
	if err := ValidateUnitSquare("p", 0.2, 0.8); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateUnitSquare("p", 0.2, 1.8); err == nil {
		t.Error("expected error for y outside [0,1]")
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("t0", 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, v := range []float64{0, -1, math.NaN()} {
		if err := ValidatePositive("t0", v); err == nil {
			t.Errorf("ValidatePositive(%v) expected error", v)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "instance.json", false},
		{"nested", "runs/a/instance.yaml", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "runs/../../x", true},
		{"backslash", "runs\\x", true},
		{"control", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
