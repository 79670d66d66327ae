package calendar

import (
	"campusevents/internal/day"
	"campusevents/internal/model"
)

// DefaultMarkerCap is the number of category dots drawn per day.
const DefaultMarkerCap = 3

// Index maps calendar days to the events on them. It is built once per
// collection and never mutated afterwards; rebuild it when the
// collection changes.
type Index struct {
	days  map[string][]model.Event
	total int
}

// Build groups events by calendar day, keeping their input order within
// each day.
func Build(events []model.Event) *Index {
	ix := &Index{days: make(map[string][]model.Event)}
	for _, e := range events {
		k := e.Date.Key()
		ix.days[k] = append(ix.days[k], e)
	}
	ix.total = len(events)
	return ix
}

// Lookup returns the events on d. The result is never nil and may be
// modified by the caller.
func (ix *Index) Lookup(d day.Date) []model.Event {
	if ix == nil {
		return []model.Event{}
	}
	evs := ix.days[d.Key()]
	out := make([]model.Event, len(evs))
	copy(out, evs)
	return out
}

// HasEvents reports whether at least one event falls on d.
func (ix *Index) HasEvents(d day.Date) bool {
	if ix == nil {
		return false
	}
	return len(ix.days[d.Key()]) > 0
}

// Count returns how many events fall on d.
func (ix *Index) Count(d day.Date) int {
	if ix == nil {
		return 0
	}
	return len(ix.days[d.Key()])
}

// Markers returns the distinct categories on d in first-seen order, at
// most limit of them. A limit <= 0 means DefaultMarkerCap.
func (ix *Index) Markers(d day.Date, limit int) []string {
	if limit <= 0 {
		limit = DefaultMarkerCap
	}
	out := make([]string, 0, limit)
	if ix == nil {
		return out
	}
	for _, e := range ix.days[d.Key()] {
		if len(out) == limit {
			break
		}
		dup := false
		for _, c := range out {
			if c == e.Category {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e.Category)
		}
	}
	return out
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.total
}

// DayCount returns the number of distinct days with events.
func (ix *Index) DayCount() int {
	if ix == nil {
		return 0
	}
	return len(ix.days)
}
