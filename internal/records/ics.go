package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"campusevents/internal/calendar"
	"campusevents/internal/day"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

// Feed is an iCalendar subscription whose VEVENTs are merged into the
// events collection (e.g. a department's public calendar).
type Feed struct {
	// ID prefixes imported event ids and names the feed in logs.
	ID string
	// URL is an http(s) URL or a local file path.
	URL string
	// Category is used for events without CATEGORIES. Defaults to Other.
	Category string
}

// FeedLoader fetches and decodes subscribed feeds. Remote feeds share the
// conditional-GET cache of HTTPSource.
type FeedLoader struct {
	http *HTTPSource
	loc  *time.Location
}

// NewFeedLoader creates a FeedLoader. Timed events are placed on the day
// they start in loc.
func NewFeedLoader(cacheDir string, timeout time.Duration, loc *time.Location) *FeedLoader {
	if loc == nil {
		loc = time.Local
	}
	return &FeedLoader{
		http: NewHTTPSource("", cacheDir, timeout),
		loc:  loc,
	}
}

// Load fetches feed and converts its VEVENTs.
func (l *FeedLoader) Load(ctx context.Context, feed Feed) ([]model.Event, error) {
	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(feed.URL, "http://") || strings.HasPrefix(feed.URL, "https://") {
		body, err = l.http.FetchURL(ctx, feed.URL, "text/calendar")
	} else {
		body, err = os.ReadFile(feed.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.ID, err)
	}
	events, err := DecodeICS(feed, body, l.loc)
	if err != nil {
		return nil, fmt.Errorf("decode feed %s: %w", feed.ID, err)
	}
	return events, nil
}

// DecodeICS converts the VEVENTs of an iCalendar payload into events.
//
//   - All-day events keep their DATE; timed events land on their start day
//     in loc and carry the start time as the display time.
//   - RRULE and EXDATE become the event's recurrence.
//   - Overrides of single instances (RECURRENCE-ID) are skipped.
//   - A VEVENT without UID or DTSTART is logged and skipped.
func DecodeICS(feed Feed, body []byte, loc *time.Location) ([]model.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		if ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")) != nil {
			appLog.Debug("ics: skipping instance override", "feed", feed.ID)
			continue
		}
		ev, err := convertVEvent(feed, ve, loc)
		if err != nil {
			appLog.Warn("ics: vevent skipped", "feed", feed.ID, "err", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics decode completed", "feed", feed.ID, "event_count", len(events))
	return events, nil
}

func convertVEvent(feed Feed, ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return model.Event{}, errors.New("missing UID")
	}

	out := model.Event{
		ID:          model.ID(feed.ID + ":" + uid),
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Venue:       propValue(ve, ical.ComponentPropertyLocation),
		Category:    feed.Category,
		Organizer:   organizer(ve),
	}
	if cats := propValue(ve, ical.ComponentPropertyCategories); cats != "" {
		first, _, _ := strings.Cut(cats, ",")
		out.Category = strings.TrimSpace(first)
	}
	if out.Category == "" {
		out.Category = model.CategoryOther
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return model.Event{}, fmt.Errorf("%s: missing DTSTART", uid)
	}
	if isAllDay(dtStart) {
		d, err := time.Parse("20060102", dtStart.Value[:min(8, len(dtStart.Value))])
		if err != nil {
			return model.Event{}, fmt.Errorf("%s: DTSTART: %w", uid, err)
		}
		out.Date = day.Of(d)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return model.Event{}, fmt.Errorf("%s: DTSTART: %w", uid, err)
		}
		start = start.In(loc)
		out.Date = day.Of(start)
		out.Time = start.Format("3:04 PM")
	}

	if rule := propValue(ve, ical.ComponentPropertyRrule); rule != "" {
		rec := calendar.Recurrence{Rule: rule}
		for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
			for _, v := range strings.Split(p.Value, ",") {
				if t, err := exdateDay(strings.TrimSpace(v), loc); err == nil {
					rec.ExDates = append(rec.ExDates, t)
				}
			}
		}
		out.Recurrence = rec.String()
	}
	return out, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// organizer prefers the CN parameter over the mailto address.
func organizer(ve *ical.VEvent) string {
	prop := ve.GetProperty(ical.ComponentPropertyOrganizer)
	if prop == nil {
		return ""
	}
	if cn, ok := prop.ICalParameters["CN"]; ok && len(cn) > 0 && cn[0] != "" {
		return cn[0]
	}
	v := prop.Value
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		v = v[7:]
	}
	return v
}

func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// exdateDay maps an EXDATE value to the day it excludes. UTC date-times are
// moved into loc first.
func exdateDay(v string, loc *time.Location) (day.Date, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return day.Date{}, err
		}
		return day.Of(t.In(loc)), nil
	case len(v) >= 8:
		t, err := time.Parse("20060102", v[:8])
		if err != nil {
			return day.Date{}, err
		}
		return day.Of(t), nil
	}
	return day.Date{}, fmt.Errorf("bad EXDATE %q", v)
}
