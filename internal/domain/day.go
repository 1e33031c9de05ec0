package domain

import (
	"regexp"
	"time"
)

// Day parameter values with special meaning.
const (
	DayAll       = "all"
	DayYesterday = "yesterday"
)

const dayLayout = "2006-01-02"

var dayPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|all|yesterday)$`)

// ValidateDay checks a day parameter against the accepted forms:
// a YYYY-MM-DD date, "all", or "yesterday".
func ValidateDay(day string) error {
	if !dayPattern.MatchString(day) {
		return NewValidationError("date", "must match YYYY-MM-DD, all or yesterday")
	}
	return nil
}

// ResolveDay turns "yesterday" into a concrete calendar date relative to now.
// Literal dates and "all" pass through unchanged.
func ResolveDay(day string, now time.Time) string {
	if day == DayYesterday {
		return now.AddDate(0, 0, -1).Format(dayLayout)
	}
	return day
}
