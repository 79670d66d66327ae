package records

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const deptFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Dept//Calendar//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:open-day\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250115\r\n" +
	"SUMMARY:Open Day\r\n" +
	"LOCATION:Main Hall\r\n" +
	"CATEGORIES:Academic\r\n" +
	"ORGANIZER;CN=Admissions:mailto:admissions@campus.edu\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:seminar\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250107T230000Z\r\n" +
	"SUMMARY:Research Seminar\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
	"EXDATE:20250114T230000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:seminar\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"RECURRENCE-ID:20250121T230000Z\r\n" +
	"DTSTART:20250122T010000Z\r\n" +
	"SUMMARY:Research Seminar (moved)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250120\r\n" +
	"SUMMARY:No UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecodeICS(t *testing.T) {
	// UTC+1: the 23:00Z seminar starts at midnight the next day.
	loc := time.FixedZone("CET", 3600)
	events, err := DecodeICS(Feed{ID: "dept", Category: "Workshop"}, []byte(deptFeed), loc)
	if err != nil {
		t.Fatalf("DecodeICS: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events (override and UID-less skipped), got %d", len(events))
	}

	open := events[0]
	if open.ID != "dept:open-day" || open.Date.Key() != "2025-01-15" || open.Time != "" {
		t.Errorf("open day = %+v", open)
	}
	if open.Category != "Academic" || open.Venue != "Main Hall" || open.Organizer != "Admissions" {
		t.Errorf("open day fields = %+v", open)
	}

	sem := events[1]
	if sem.Date.Key() != "2025-01-08" || sem.Time != "12:00 AM" {
		t.Errorf("seminar day/time = %s %q", sem.Date.Key(), sem.Time)
	}
	if sem.Category != "Workshop" {
		t.Errorf("feed default category not applied: %q", sem.Category)
	}
	if sem.Recurrence != "RRULE:FREQ=WEEKLY;COUNT=3\nEXDATE:20250115" {
		t.Errorf("recurrence = %q", sem.Recurrence)
	}
}

func TestDecodeICSRejectsGarbage(t *testing.T) {
	if _, err := DecodeICS(Feed{ID: "x"}, nil, time.UTC); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestFeedLoader(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.Header.Get("Accept"); got != "text/calendar" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(deptFeed))
	}))
	defer srv.Close()

	l := NewFeedLoader(t.TempDir(), time.Second, time.UTC)
	events, err := l.Load(context.Background(), Feed{ID: "dept", URL: srv.URL + "/dept.ics"})
	if err != nil {
		t.Fatalf("Load remote: %v", err)
	}
	if len(events) != 2 || hits != 1 {
		t.Fatalf("events=%d hits=%d", len(events), hits)
	}

	path := filepath.Join(t.TempDir(), "local.ics")
	if err := os.WriteFile(path, []byte(deptFeed), 0o644); err != nil {
		t.Fatal(err)
	}
	if events, err := l.Load(context.Background(), Feed{ID: "local", URL: path}); err != nil || len(events) != 2 {
		t.Fatalf("Load local: %d %v", len(events), err)
	}

	_, err = l.Load(context.Background(), Feed{ID: "gone", URL: filepath.Join(t.TempDir(), "missing.ics")})
	if err == nil || !strings.Contains(err.Error(), "gone") {
		t.Fatalf("expected error naming the feed, got %v", err)
	}
}
