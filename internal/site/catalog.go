// Package site holds the latest loaded collections and the derived
// calendar index, and refreshes them on a schedule.
package site

import (
	"context"
	"sync"
	"time"

	"campusevents/internal/calendar"
	"campusevents/internal/day"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
	"campusevents/internal/records"
)

// Snapshot is an immutable view of every collection at one point in time.
type Snapshot struct {
	Events       []model.Event
	Gallery      []model.GalleryImage
	Testimonials []model.Testimonial
	Banners      []model.Banner
	Contacts     []model.Contact

	// Calendar indexes Events with recurring entries expanded.
	Calendar *calendar.Index
	// Truncated lists recurring events whose occurrences hit the cap.
	Truncated []model.ID

	// Unavailable maps a collection name to the reason it failed to load.
	Unavailable map[string]string
	LoadedAt    time.Time
}

// FeedKey is the Unavailable key of a failed feed.
func FeedKey(id string) string { return "feed:" + id }

// IsUnavailable reports whether collection name failed on the last load.
func (s *Snapshot) IsUnavailable(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s.Unavailable[name]
	return ok
}

// Event finds an event by id.
func (s *Snapshot) Event(id model.ID) (model.Event, bool) {
	if s == nil {
		return model.Event{}, false
	}
	for _, e := range s.Events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

// Options tune a Catalog.
type Options struct {
	// Location decides what "today" is. Defaults to time.Local.
	Location *time.Location
	// RecurrenceWindowDays bounds recurring-event expansion on both sides
	// of today. Defaults to 365.
	RecurrenceWindowDays int
	// MaxOccurrencesPerEvent caps one recurrence rule.
	MaxOccurrencesPerEvent int
	// Feeds are iCalendar subscriptions merged into Events, fetched with
	// FeedLoader (a default one is created when nil).
	Feeds      []records.Feed
	FeedLoader *records.FeedLoader
	// Now overrides the clock in tests.
	Now func() time.Time
	// AfterRefresh runs after each successful swap of the snapshot.
	AfterRefresh func(*Snapshot)
}

// Catalog serves the current Snapshot and replaces it on Refresh.
type Catalog struct {
	src  records.Source
	opts Options

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCatalog creates a Catalog with an empty snapshot; call Refresh to
// load data.
func NewCatalog(src records.Source, opts Options) *Catalog {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RecurrenceWindowDays <= 0 {
		opts.RecurrenceWindowDays = 365
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Feeds) > 0 && opts.FeedLoader == nil {
		opts.FeedLoader = records.NewFeedLoader("", 0, opts.Location)
	}
	c := &Catalog{src: src, opts: opts}
	c.snap = &Snapshot{
		Events:       []model.Event{},
		Gallery:      []model.GalleryImage{},
		Testimonials: []model.Testimonial{},
		Banners:      []model.Banner{},
		Contacts:     []model.Contact{},
		Calendar:     calendar.Build(nil),
		Unavailable:  map[string]string{},
	}
	return c
}

// Today is the current calendar day in the catalog's location.
func (c *Catalog) Today() day.Date {
	return day.Of(c.opts.Now().In(c.opts.Location))
}

// Location returns the zone used for "today".
func (c *Catalog) Location() *time.Location {
	return c.opts.Location
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (c *Catalog) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Refresh reloads every collection and rebuilds the calendar index. Failed
// collections come back empty and are listed in Unavailable; Refresh
// itself never fails.
func (c *Catalog) Refresh(ctx context.Context) *Snapshot {
	start := time.Now()

	events := records.LoadOrEmpty[model.Event](ctx, c.src, records.Events)
	gallery := records.LoadOrEmpty[model.GalleryImage](ctx, c.src, records.Gallery)
	testimonials := records.LoadOrEmpty[model.Testimonial](ctx, c.src, records.Testimonials)
	banners := records.LoadOrEmpty[model.Banner](ctx, c.src, records.Banners)
	contacts := records.LoadOrEmpty[model.Contact](ctx, c.src, records.Contacts)

	all := events.Items
	feedErrs := make(map[string]error)
	for _, feed := range c.opts.Feeds {
		imported, err := c.opts.FeedLoader.Load(ctx, feed)
		if err != nil {
			appLog.Error("feed unavailable; skipping its events", err, "feed", feed.ID)
			feedErrs[FeedKey(feed.ID)] = err
			continue
		}
		all = append(all, imported...)
	}

	snap := &Snapshot{
		Events:       uniqueEvents(all),
		Gallery:      gallery.Items,
		Testimonials: testimonials.Items,
		Banners:      banners.Items,
		Contacts:     contacts.Items,
		Unavailable:  map[string]string{},
		LoadedAt:     c.opts.Now(),
	}
	for name, err := range map[string]error{
		records.Events:       events.Err,
		records.Gallery:      gallery.Err,
		records.Testimonials: testimonials.Err,
		records.Banners:      banners.Err,
		records.Contacts:     contacts.Err,
	} {
		if err != nil {
			snap.Unavailable[name] = err.Error()
		}
	}
	for key, err := range feedErrs {
		snap.Unavailable[key] = err.Error()
	}

	today := c.Today()
	snap.Calendar, snap.Truncated = calendar.BuildExpanded(snap.Events, calendar.ExpandConfig{
		RangeStart:             today.AddDays(-c.opts.RecurrenceWindowDays),
		RangeEnd:               today.AddDays(c.opts.RecurrenceWindowDays),
		MaxOccurrencesPerEvent: c.opts.MaxOccurrencesPerEvent,
	})

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	appLog.Info("catalog refreshed",
		"events", len(snap.Events),
		"gallery", len(snap.Gallery),
		"calendar_days", snap.Calendar.DayCount(),
		"unavailable", len(snap.Unavailable),
		"took", time.Since(start).Round(time.Millisecond),
	)

	if c.opts.AfterRefresh != nil {
		c.opts.AfterRefresh(snap)
	}
	return snap
}

// uniqueEvents drops every event whose id was already seen.
func uniqueEvents(events []model.Event) []model.Event {
	seen := make(map[model.ID]struct{}, len(events))
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.ID]; ok {
			appLog.Warn("duplicate event id dropped", "id", e.ID, "title", e.Title)
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
