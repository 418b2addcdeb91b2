// Package hebrew implements the Hebrew calendar: civil/Hebrew date
// conversion, molad arithmetic, festival predicates, the weekly Torah
// reading cycle and sunset for a fixed location.
package hebrew

import (
	"fmt"
	"time"
)

// DateLayout is the ISO layout used for civil dates in URLs, cache keys and logs.
const DateLayout = "2006-01-02"

// unixEpochRD is the fixed (R.D.) day number of 1970-01-01.
const unixEpochRD = 719163

// CivilDate is a Gregorian calendar day with no time-of-day.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCivilDate normalizes the given fields, so NewCivilDate(2025, 1, 32)
// is February 1st.
func NewCivilDate(year int, month time.Month, day int) CivilDate {
	return CivilDateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// CivilDateOf returns the calendar day of t in t's own location.
// The fields are read directly, never shifted through UTC.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a date string in YYYY-MM-DD format.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("parse civil date %q: %w", s, err)
	}
	return CivilDateOf(t), nil
}

// Time returns midnight of the date in loc.
func (d CivilDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d CivilDate) AddDays(n int) CivilDate {
	return NewCivilDate(d.Year, d.Month, d.Day+n)
}

// Weekday returns the day of the week.
func (d CivilDate) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// Before reports whether d is earlier than other.
func (d CivilDate) Before(other CivilDate) bool {
	return d.RD() < other.RD()
}

// RD returns the fixed day number (Rata Die, 0001-01-01 = 1).
func (d CivilDate) RD() int64 {
	return floorDiv(d.Time(time.UTC).Unix(), 86400) + unixEpochRD
}

// String formats the date as YYYY-MM-DD.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d CivilDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CivilDate) UnmarshalText(b []byte) error {
	parsed, err := ParseCivilDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// civilFromRD converts a fixed day number back to a civil date.
func civilFromRD(rd int64) CivilDate {
	return CivilDateOf(time.Unix((rd-unixEpochRD)*86400, 0).UTC())
}

// weekdayOfRD returns the weekday of a fixed day number. R.D. 0 is a Sunday.
func weekdayOfRD(rd int64) time.Weekday {
	return time.Weekday(mod(rd, 7))
}

// saturdayOnOrBefore returns the last Saturday at or before rd.
func saturdayOnOrBefore(rd int64) int64 {
	return rd - mod(int64(weekdayOfRD(rd))+1, 7)
}

// saturdayOnOrAfter returns the first Saturday at or after rd.
func saturdayOnOrAfter(rd int64) int64 {
	return saturdayOnOrBefore(rd + 6)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int64) int64 {
	return a - b*floorDiv(a, b)
}
