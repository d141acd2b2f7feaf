package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Range is an inclusive calendar date range. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d time.Time) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r Range) IsOpen() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		// time.Parse rejects impossible days such as 2024-02-30.
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

// ParseMonth parses YYYY-MM and returns the first and last day of that month.
func ParseMonth(raw string) (time.Time, time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("month is required")
	}
	if !monthRe.MatchString(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: use YYYY-MM", raw)
	}
	first, err := time.ParseInLocation(MonthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", raw, err)
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

// ParseRange parses optional from/to bounds. Either may be blank.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = ParseDate(from); err != nil {
			return Range{}, fmt.Errorf("from: %w", err)
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = ParseDate(to); err != nil {
			return Range{}, fmt.Errorf("to: %w", err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("invalid range: to is before from")
	}
	return r, nil
}

// Truncate drops the time of day, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}
