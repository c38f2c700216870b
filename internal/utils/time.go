package utils

import (
	"fmt"
	"time"
)

// MonthLayout is the "YYYY-MM" month key format.
const MonthLayout = "2006-01"

// MonthKey returns the "YYYY-MM" key of t in its own location.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseMonth parses a "YYYY-MM" key into its year and month.
func ParseMonth(key string) (int, time.Month, error) {
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", key, err)
	}
	return t.Year(), t.Month(), nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateKey returns the "YYYY-MM-DD" key of t.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// LastMonths returns the n month keys ending at now, newest first.
func LastMonths(now time.Time, n int) []string {
	out := make([]string, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < n; i++ {
		out = append(out, MonthKey(first.AddDate(0, -i, 0)))
	}
	return out
}
