package export

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"campusevents/internal/day"
	"campusevents/internal/model"
)

func TestCalendarRoundTrip(t *testing.T) {
	events := []model.Event{
		{
			ID: "1", Title: "Hack Day", Date: day.MustParse("2025-01-10"),
			Time: "9:00 AM", Venue: "Lab 3", Category: "Technical", Organizer: "CS Society",
			Description: "Build things overnight",
		},
		{
			ID: "2", Title: "Chess Club", Date: day.MustParse("2025-01-06"),
			Category: "Social", Recurrence: "RRULE:FREQ=WEEKLY;COUNT=4",
		},
	}
	out := Calendar(Feed{
		Name:    "Campus Events",
		BaseURL: "https://events.example.edu/",
		Stamp:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, events)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + ProductID,
		"UID:1@campusevents",
		"SUMMARY:Hack Day",
		"DTSTART;VALUE=DATE:20250110",
		"DTEND;VALUE=DATE:20250111",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"URL:https://events.example.edu/#/register/1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse own output: %v", err)
	}
	if n := len(cal.Events()); n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}
	loc := cal.Events()[0].GetProperty(ical.ComponentPropertyLocation)
	if loc == nil || loc.Value != "Lab 3" {
		t.Fatalf("location = %+v", loc)
	}
}

func TestCalendarEmpty(t *testing.T) {
	out := Calendar(Feed{}, nil)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("unexpected output %q", out)
	}
}
