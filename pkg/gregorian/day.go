// Package gregorian provides calendar-day values without a time-of-day
// component, plus the timezone-aware conversions the isolation engine needs.
//
// A Day is interpreted in whatever location the caller supplies when it is
// turned back into an instant. Arithmetic between days never depends on a
// location, so day differences stay exact across DST transitions.
package gregorian

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Day is a Gregorian calendar date.
type Day struct {
	Year       int
	Month      time.Month
	DayOfMonth int
}

// New returns a normalized Day. Out-of-range values roll over the way
// time.Date does (e.g. March 0 becomes the last day of February).
func New(year int, month time.Month, day int) Day {
	return fromUTC(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// From returns the calendar day of t as observed in location.
func From(t time.Time, location *time.Location) Day {
	if location == nil {
		location = time.UTC
	}
	year, month, day := t.In(location).Date()
	return Day{Year: year, Month: month, DayOfMonth: day}
}

// Parse reads a day in YYYY-MM-DD form.
func Parse(value string) (Day, error) {
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return Day{}, fmt.Errorf("parse gregorian day %q: %w", value, err)
	}
	return fromUTC(parsed), nil
}

func fromUTC(t time.Time) Day {
	year, month, day := t.Date()
	return Day{Year: year, Month: month, DayOfMonth: day}
}

func (d Day) utc() time.Time {
	return time.Date(d.Year, d.Month, d.DayOfMonth, 0, 0, 0, 0, time.UTC)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return fromUTC(d.utc().AddDate(0, 0, n))
}

// DaysSince returns the number of days from other to d.
func (d Day) DaysSince(other Day) int {
	return int(d.utc().Sub(other.utc()).Hours() / 24)
}

// Compare returns -1, 0 or +1 when d is before, equal to or after other.
func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.DayOfMonth - other.DayOfMonth)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool  { return d.Compare(other) > 0 }

// StartOfDay returns midnight of d in location.
func (d Day) StartOfDay(location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	return time.Date(d.Year, d.Month, d.DayOfMonth, 0, 0, 0, 0, location)
}

func (d Day) String() string {
	return d.utc().Format(layout)
}

func (d Day) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Min returns the earlier of a and b.
func Min(a, b Day) Day {
	if b.Before(a) {
		return b
	}
	return a
}

// Max returns the later of a and b.
func Max(a, b Day) Day {
	if b.After(a) {
		return b
	}
	return a
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
