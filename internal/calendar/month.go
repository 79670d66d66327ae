package calendar

import (
	"strings"
	"time"

	"campusevents/internal/day"
)

// Cell is one day of a month grid.
type Cell struct {
	Date    day.Date `json:"date"`
	InMonth bool     `json:"in_month"`
	Count   int      `json:"count"`
	Markers []string `json:"markers"`
}

// Month is the visible grid of a calendar month: whole weeks, including
// the adjacent-month days needed to fill the first and last week.
type Month struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	WeekStart string     `json:"week_start"`
	Weeks     [][]Cell   `json:"weeks"`
}

// ParseWeekStart maps the config value ("monday" or "sunday") to a
// weekday. Anything else is treated as monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Month lays out year/month starting weeks on weekStart and annotates each
// cell with its event count and category markers.
func (ix *Index) Month(year int, month time.Month, weekStart time.Weekday, markerCap int) Month {
	first := day.New(year, month, 1)
	last := day.New(year, month+1, 1).AddDays(-1)

	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	cur := first.AddDays(-lead)

	m := Month{
		Year:      first.Year,
		Month:     first.Month,
		WeekStart: strings.ToLower(weekStart.String()),
		Weeks:     make([][]Cell, 0, 6),
	}
	for !cur.After(last) {
		week := make([]Cell, 0, 7)
		for i := 0; i < 7; i++ {
			week = append(week, Cell{
				Date:    cur,
				InMonth: cur.Month == first.Month && cur.Year == first.Year,
				Count:   ix.Count(cur),
				Markers: ix.Markers(cur, markerCap),
			})
			cur = cur.AddDays(1)
		}
		m.Weeks = append(m.Weeks, week)
	}
	return m
}

// MarkedDays returns the in-month days of m that carry at least one event.
func (m Month) MarkedDays() []day.Date {
	out := make([]day.Date, 0)
	for _, w := range m.Weeks {
		for _, c := range w {
			if c.InMonth && c.Count > 0 {
				out = append(out, c.Date)
			}
		}
	}
	return out
}
