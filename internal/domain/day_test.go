package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDay(t *testing.T) {
	valid := []string{"2024-01-01", "1999-12-31", "all", "yesterday"}
	for _, day := range valid {
		if err := ValidateDay(day); err != nil {
			t.Errorf("ValidateDay(%q) = %v", day, err)
		}
	}

	invalid := []string{"", "01-01-2024", "2024/01/01", "today", "2024-1-1", "2024-01-01 "}
	for _, day := range invalid {
		err := ValidateDay(day)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateDay(%q) = %v, want validation error", day, err)
		}
	}
}

func TestResolveDay(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if got := ResolveDay(DayYesterday, now); got != "2024-02-29" {
		t.Errorf("yesterday = %q", got)
	}
	if got := ResolveDay("2024-01-01", now); got != "2024-01-01" {
		t.Errorf("literal day changed: %q", got)
	}
	if got := ResolveDay(DayAll, now); got != DayAll {
		t.Errorf("all changed: %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("limit", "must be between 1 and 100")
	if !errors.Is(err, ErrValidation) {
		t.Error("validation errors must unwrap to ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "limit" {
		t.Errorf("unexpected error shape: %v", err)
	}
}
