package errors

import (
	"testing"
	"time"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"one", 1, false},
		{"large", 1 << 20, false},
		{"zero", 0, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("width", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositive(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidatePositive(%d) code = %v, want %v", tt.value, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("strategy", "boolean", "boolean", "arith"); err != nil {
		t.Errorf("ValidateOneOf(boolean) = %v, want nil", err)
	}
	err := ValidateOneOf("strategy", "smt", "boolean", "arith")
	if err == nil {
		t.Fatal("ValidateOneOf(smt) = nil, want error")
	}
	want := `invalid strategy: "smt" (must be one of: boolean, arith)`
	if UserMessage(err) != want {
		t.Errorf("UserMessage() = %q, want %q", UserMessage(err), want)
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		wantErr bool
	}{
		{"five minutes", 5 * time.Minute, false},
		{"one millisecond", time.Millisecond, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
		{"two days", 48 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration("timeout", tt.d)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDuration(%s) error = %v, wantErr %v", tt.d, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "3f2b8c1e-9a4d-4f6e-8b7a-0c1d2e3f4a5b", false},
		{"hex", "deadbeef", false},

		{"empty", "", true},
		{"traversal", "../runs", true},
		{"slash", "a/b", true},
		{"too long", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
