// Package filter derives the visible subset of a collection from the
// active criteria: status, category, year and text filters combined with
// AND, followed by one stable sort and optional bucketing by year.
//
// Every function here is pure. Inputs are never modified and an empty
// input always yields an empty, non-nil result.
package filter

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"campusevents/internal/day"
	"campusevents/internal/model"
)

// All disables the category and year filters.
const All = "All"

// Status selects events relative to today.
type Status string

const (
	StatusUpcoming Status = "Upcoming"
	StatusPast     Status = "Past"
	StatusAll      Status = "All"
)

// SortKey selects the output order.
type SortKey string

const (
	SortDateAsc  SortKey = "date-asc"
	SortDateDesc SortKey = "date-desc"
	SortNameAsc  SortKey = "name-asc"
)

// Criteria is the transient filter state of one events view.
type Criteria struct {
	Search   string
	Category string // All or "" matches any category
	Status   Status
	Year     int // 0 matches any year
	Sort     SortKey
}

// DefaultCriteria matches the initial state of the events page.
func DefaultCriteria() Criteria {
	return Criteria{
		Category: All,
		Status:   StatusUpcoming,
		Sort:     SortDateAsc,
	}
}

// Events filters and sorts events for today. Dates are compared at day
// granularity, so an event dated today counts as upcoming.
func Events(events []model.Event, c Criteria, today day.Date) []model.Event {
	needle := strings.ToLower(c.Search)
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if matches(e, c, needle, today) {
			out = append(out, e)
		}
	}
	SortEvents(out, c.Sort)
	return out
}

// Matches reports whether e passes every active filter of c.
func Matches(e model.Event, c Criteria, today day.Date) bool {
	return matches(e, c, strings.ToLower(c.Search), today)
}

func matches(e model.Event, c Criteria, needle string, today day.Date) bool {
	switch c.Status {
	case StatusUpcoming:
		if e.Date.Before(today) {
			return false
		}
	case StatusPast:
		if !e.Date.Before(today) {
			return false
		}
	}
	if c.Category != "" && c.Category != All && e.Category != c.Category {
		return false
	}
	if c.Year != 0 && e.Date.Year != c.Year {
		return false
	}
	if needle != "" &&
		!strings.Contains(strings.ToLower(e.Title), needle) &&
		!strings.Contains(strings.ToLower(e.Description), needle) {
		return false
	}
	return true
}

// SortEvents orders events in place. Ties keep their relative order.
// An unknown key leaves the slice untouched.
func SortEvents(events []model.Event, key SortKey) {
	switch key {
	case SortDateAsc:
		slices.SortStableFunc(events, func(a, b model.Event) int {
			return a.Date.Compare(b.Date)
		})
	case SortDateDesc:
		slices.SortStableFunc(events, func(a, b model.Event) int {
			return b.Date.Compare(a.Date)
		})
	case SortNameAsc:
		// Collators keep internal buffers; one per sort.
		col := collate.New(language.English)
		slices.SortStableFunc(events, func(a, b model.Event) int {
			return col.CompareString(a.Title, b.Title)
		})
	}
}

// Categories returns "All" followed by the distinct event categories in
// alphabetical order.
func Categories(events []model.Event) []string {
	seen := make(map[string]struct{}, len(events))
	cats := make([]string, 0)
	for _, e := range events {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		cats = append(cats, e.Category)
	}
	slices.Sort(cats)
	return append([]string{All}, cats...)
}

// Years returns "All" followed by the distinct event years, most recent
// first.
func Years(events []model.Event) []string {
	seen := make(map[int]struct{}, len(events))
	years := make([]int, 0)
	for _, e := range events {
		if _, ok := seen[e.Date.Year]; ok {
			continue
		}
		seen[e.Date.Year] = struct{}{}
		years = append(years, e.Date.Year)
	}
	slices.Sort(years)
	slices.Reverse(years)

	out := make([]string, 0, len(years)+1)
	out = append(out, All)
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// Featured returns the soonest featured event that is not in the past.
func Featured(events []model.Event, today day.Date) (model.Event, bool) {
	var (
		best  model.Event
		found bool
	)
	for _, e := range events {
		if !e.Featured || e.Date.Before(today) {
			continue
		}
		if !found || e.Date.Before(best.Date) {
			best, found = e, true
		}
	}
	return best, found
}

// Upcoming returns at most n events dated today or later, soonest first.
func Upcoming(events []model.Event, today day.Date, n int) []model.Event {
	c := Criteria{Status: StatusUpcoming, Sort: SortDateAsc}
	out := Events(events, c, today)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
