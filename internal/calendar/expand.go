package calendar

import (
	"errors"
	"strings"
	"time"

	"campusevents/internal/day"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 500
)

// ExpandConfig controls how recurring events are laid out on the calendar.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the occurrences of recurring events
	// (inclusive). Non-recurring events are never dropped.
	RangeStart day.Date
	RangeEnd   day.Date

	// MaxOccurrencesPerEvent caps a single rule. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the per-day entries and the ids whose rule hit the cap.
type ExpandResult struct {
	Occurrences []model.Event
	Truncated   []model.ID
}

// Expand turns events into calendar entries. An event with a recurrence
// rule yields one copy per occurrence day inside the range, each with Date
// set to that day; everything else passes through unchanged and in order.
// A rule that fails to parse is logged and the event is kept on its own
// date.
func Expand(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if strings.TrimSpace(ev.Recurrence) == "" {
			out = append(out, ev)
			continue
		}

		occ, hitCap, err := expandRecurring(ev, cfg)
		if err != nil {
			appLog.Error("expand: failed to parse recurrence", err, "id", ev.ID, "rrule", ev.Recurrence)
			out = append(out, ev)
			continue
		}
		if hitCap {
			result.Truncated = append(result.Truncated, ev.ID)
			appLog.Warn("expand: truncated occurrences due to cap",
				"id", ev.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		out = append(out, occ...)
	}

	result.Occurrences = out
	return result, nil
}

func expandRecurring(ev model.Event, cfg ExpandConfig) ([]model.Event, bool, error) {
	rec, err := ParseRecurrence(ev.Recurrence)
	if err != nil {
		return nil, false, err
	}
	set, err := rec.set(ev.Date)
	if err != nil {
		return nil, false, err
	}

	times := set.Between(cfg.RangeStart.Time(time.UTC), cfg.RangeEnd.Time(time.UTC), true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Event, 0, len(times))
	for _, t := range times {
		occ := ev
		occ.Date = day.Of(t.UTC())
		out = append(out, occ)
	}
	return out, hitCap, nil
}

// BuildExpanded expands recurring events within cfg and indexes the
// result. On an invalid range it falls back to indexing the base events.
func BuildExpanded(events []model.Event, cfg ExpandConfig) (*Index, []model.ID) {
	res, err := Expand(events, cfg)
	if err != nil {
		appLog.Error("calendar: expand failed; indexing base events", err)
		return Build(events), nil
	}
	return Build(res.Occurrences), res.Truncated
}
