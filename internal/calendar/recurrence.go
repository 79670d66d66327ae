package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"campusevents/internal/day"
)

// Recurrence is the parsed form of Event.Recurrence: one RRULE plus
// optional excluded days. The text form is one property per line:
//
//	RRULE:FREQ=WEEKLY;COUNT=4
//	EXDATE:20250113,20250120
//
// A single line without a property name is taken as the RRULE.
type Recurrence struct {
	Rule    string
	ExDates []day.Date
}

// ParseRecurrence splits s into its rule and exclusions. The rule itself
// is validated later by rrule-go.
func ParseRecurrence(s string) (Recurrence, error) {
	var rec Recurrence
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			name, value = "RRULE", line
		}
		switch strings.ToUpper(name) {
		case "RRULE":
			if rec.Rule != "" {
				return Recurrence{}, errors.New("recurrence: more than one RRULE")
			}
			rec.Rule = strings.TrimSpace(value)
		case "EXDATE":
			for _, v := range strings.Split(value, ",") {
				d, err := parseICSDay(strings.TrimSpace(v))
				if err != nil {
					return Recurrence{}, fmt.Errorf("recurrence: EXDATE %q: %w", v, err)
				}
				rec.ExDates = append(rec.ExDates, d)
			}
		default:
			return Recurrence{}, fmt.Errorf("recurrence: unsupported property %q", name)
		}
	}
	if rec.Rule == "" {
		return Recurrence{}, errors.New("recurrence: missing RRULE")
	}
	return rec, nil
}

// String renders the text form.
func (r Recurrence) String() string {
	s := "RRULE:" + r.Rule
	if len(r.ExDates) > 0 {
		parts := make([]string, len(r.ExDates))
		for i, d := range r.ExDates {
			parts[i] = ICSDay(d)
		}
		s += "\nEXDATE:" + strings.Join(parts, ",")
	}
	return s
}

// set builds the rrule set anchored at start (UTC midnight).
func (r Recurrence) set(start day.Date) (*rrule.Set, error) {
	rule, err := rrule.StrToRRule(r.Rule)
	if err != nil {
		return nil, err
	}
	// Occurrences are whole days; anchor at UTC midnight so no zone offset
	// can shift a day.
	rule.DTStart(start.Time(time.UTC))

	set := &rrule.Set{}
	set.RRule(rule)
	for _, d := range r.ExDates {
		set.ExDate(d.Time(time.UTC))
	}
	return set, nil
}

// ICSDay formats d as an iCalendar DATE value.
func ICSDay(d day.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// parseICSDay accepts DATE (20250113) and DATE-TIME (20250113T090000[Z])
// values, keeping only the day.
func parseICSDay(v string) (day.Date, error) {
	if len(v) >= 8 {
		if t, err := time.Parse("20060102", v[:8]); err == nil {
			return day.Of(t), nil
		}
	}
	return day.Date{}, errors.New("not an iCalendar date")
}
