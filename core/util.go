package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var textValidator = validator.New()

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// IsBlank reports whether s is empty once trimmed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// TextLimit caps the number of characters (runes) of a text field, once trimmed.
type TextLimit struct {
	Field string
	Value string
	Max   int
}

// CheckTextLimits returns a ValidationError wrapping ErrTooLong that lists every field over its limit.
func CheckTextLimits(limits ...TextLimit) error {
	var flds []FieldError
	for _, l := range limits {
		if err := textValidator.Var(CleanString(l.Value), fmt.Sprintf("max=%d", l.Max)); err != nil {
			flds = append(flds, FieldError{Field: l.Field, Error: fmt.Sprintf("must be at most %d characters", l.Max)})
		}
	}
	if flds != nil {
		return NewValidationError(ErrTooLong, flds...)
	}
	return nil
}

// Sleep waits for d, or until ctx is done. A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
