// Package export renders events as an iCalendar feed for "add to
// calendar" links and subscriptions.
package export

import (
	"net/url"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"campusevents/internal/calendar"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

const (
	ProductID = "-//Campus Events//Events Feed//EN"
	uidDomain = "campusevents"
)

// Feed describes the calendar being exported.
type Feed struct {
	Name string
	// BaseURL, if set, is used to link each event to its registration
	// page on the site.
	BaseURL string
	// Stamp is written as DTSTAMP; defaults to now.
	Stamp time.Time
}

// UID returns the iCalendar UID of an event.
func UID(id model.ID) string {
	return string(id) + "@" + uidDomain
}

// Calendar renders events as all-day VEVENTs. Recurring events carry their
// rule so calendar clients expand them.
func Calendar(feed Feed, events []model.Event) string {
	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	stamp = stamp.UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if feed.Name != "" {
		cal.SetXWRCalName(feed.Name)
	}

	for _, e := range events {
		ev := cal.AddEvent(UID(e.ID))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(e.Date.Time(time.UTC))
		ev.SetAllDayEndAt(e.Date.AddDays(1).Time(time.UTC))
		ev.SetSummary(e.Title)
		if e.Venue != "" {
			ev.SetLocation(e.Venue)
		}
		if desc := description(e); desc != "" {
			ev.SetDescription(desc)
		}
		if e.Category != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
		if feed.BaseURL != "" {
			ev.SetURL(strings.TrimRight(feed.BaseURL, "/") + "/#/register/" + url.PathEscape(string(e.ID)))
		}
		if strings.TrimSpace(e.Recurrence) != "" {
			addRecurrence(ev, e)
		}
	}
	return cal.Serialize()
}

func addRecurrence(ev *ical.VEvent, e model.Event) {
	rec, err := calendar.ParseRecurrence(e.Recurrence)
	if err != nil {
		// Clients would reject the feed; export the base date only.
		appLog.Warn("export: skipping invalid recurrence", "id", e.ID, "err", err)
		return
	}
	ev.AddRrule(rec.Rule)
	if len(rec.ExDates) > 0 {
		days := make([]string, len(rec.ExDates))
		for i, d := range rec.ExDates {
			days[i] = calendar.ICSDay(d)
		}
		ev.AddProperty(ical.ComponentPropertyExdate, strings.Join(days, ","), ical.WithValue(string(ical.ValueDataTypeDate)))
	}
}

func description(e model.Event) string {
	var parts []string
	if e.Time != "" {
		parts = append(parts, "Time: "+e.Time)
	}
	if e.Organizer != "" {
		parts = append(parts, "Organizer: "+e.Organizer)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "\n")
}
