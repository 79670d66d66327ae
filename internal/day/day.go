// Package day holds the calendar-day helpers shared by the filter engine and
// the calendar index. All "same day" comparisons in the service go through
// Date so that time-of-day and zone offsets never leak into them.
package day

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the ISO layout used for day keys and JSON encoding.
const KeyLayout = "2006-01-02"

var parseLayouts = []string{
	KeyLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Date is a civil calendar date without time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Of truncates t to its calendar day in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in loc (time.Local if nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Of(time.Now().In(loc))
}

// New builds a normalized Date (e.g. Jan 32 becomes Feb 1).
func New(year int, month time.Month, d int) Date {
	return Of(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
}

// Parse reads a date from the forms found in the data files. Only the
// calendar day written in the value is kept; offsets are not applied.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Of(t), nil
		}
	}
	return Date{}, fmt.Errorf("unparseable date %q", s)
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Key returns the YYYY-MM-DD key of d.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) String() string {
	return d.Key()
}

// Time returns midnight of d in loc (UTC if nil).
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Compare returns -1, 0 or +1 like cmp.Compare.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Of(d.Time(time.UTC).AddDate(0, 0, n))
}

// Weekday of d.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
