package errors

import (
	"strings"
	"time"
	"unicode"
)

// ValidatePositive checks that an integer field is at least 1.
func ValidatePositive(field string, v int) error {
	if v < 1 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %d", field, v)
	}
	return nil
}

// ValidateOneOf checks that value is one of the allowed options.
// The comparison is exact; callers normalise case beforehand.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "invalid %s: %q (must be one of: %s)", field, value, strings.Join(allowed, ", "))
}

// ValidateDuration checks that a time budget is positive and not absurdly large.
func ValidateDuration(field string, d time.Duration) error {
	const maxBudget = 24 * time.Hour
	if d <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %s", field, d)
	}
	if d > maxBudget {
		return New(ErrCodeInvalidInput, "%s too long (max %s)", field, maxBudget)
	}
	return nil
}

// ValidateRunID checks that a run identifier is a plain token usable as a
// file name and a document key.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "run id too long (max 64 characters)")
	}
	for _, r := range id {
		if !(r == '-' || unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return New(ErrCodeInvalidInput, "run id contains invalid character %q", r)
		}
	}
	return nil
}
