package valueobject

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical calendar date layout
const DateKeyLayout = "2006-01-02"

// DateKey is a calendar date ("YYYY-MM-DD") without time of day or zone.
// Keys compare lexicographically in chronological order, which is what the
// end-range queries rely on.
type DateKey string

// ParseDateKey validates and normalizes a YYYY-MM-DD string
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date key %q: expected YYYY-MM-DD", s)
	}
	return DateKey(t.Format(DateKeyLayout)), nil
}

// MustParseDateKey is ParseDateKey for constants and tests
func MustParseDateKey(s string) DateKey {
	k, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// DateKeyOf returns the calendar date of t as observed in loc
func DateKeyOf(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	return DateKey(t.In(loc).Format(DateKeyLayout))
}

// NewDateKey builds a key from its components; out of range values normalize
// the way time.Date does.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(DateKeyLayout))
}

// String returns the key
func (k DateKey) String() string {
	return string(k)
}

// IsZero reports an unset key
func (k DateKey) IsZero() bool {
	return k == ""
}

// Valid reports whether the key parses
func (k DateKey) Valid() bool {
	_, err := time.Parse(DateKeyLayout, string(k))
	return err == nil
}

// Time returns midnight UTC of the date. Invalid keys yield the zero time.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(DateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Before reports whether k is strictly earlier than other
func (k DateKey) Before(other DateKey) bool {
	return k < other
}

// After reports whether k is strictly later than other
func (k DateKey) After(other DateKey) bool {
	return k > other
}

// AddDays moves the date by n calendar days
func (k DateKey) AddDays(n int) DateKey {
	return DateKey(k.Time().AddDate(0, 0, n).Format(DateKeyLayout))
}

// AddMonths moves the date by n calendar months. When the target month is
// shorter than the source day, the result is clamped to the target month's
// last day (Jan 31 + 1 month = Feb 28/29).
func (k DateKey) AddMonths(n int) DateKey {
	t := k.Time()
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return DateKey(time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC).Format(DateKeyLayout))
}

// AddYears moves the date by n years with the same clamping as AddMonths
func (k DateKey) AddYears(n int) DateKey {
	return k.AddMonths(12 * n)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
