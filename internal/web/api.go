package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusevents/internal/calendar"
	"campusevents/internal/day"
	"campusevents/internal/filter"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
	"campusevents/internal/records"
	"campusevents/internal/site"
)

// eventDTO is an event as the UI consumes it.
type eventDTO struct {
	model.Event
	Status     model.Status `json:"status"`
	Image      string       `json:"image"`
	Bookmarked bool         `json:"bookmarked"`
}

func toEventDTO(e model.Event, today day.Date, marked map[model.ID]bool) eventDTO {
	return eventDTO{
		Event:      e,
		Status:     e.StatusOn(today),
		Image:      e.ImageURL(),
		Bookmarked: marked[e.ID],
	}
}

func toEventDTOs(events []model.Event, today day.Date, marked map[model.ID]bool) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e, today, marked))
	}
	return out
}

// eventsResponse is the JSON response shape for /api/events. With
// group=year, Events is null and Groups holds the buckets.
type eventsResponse struct {
	Events      []eventDTO               `json:"events"`
	Groups      []filter.Group[eventDTO] `json:"groups,omitempty"`
	Total       int                      `json:"total"`
	Categories  []string                 `json:"categories"`
	Years       []string                 `json:"years"`
	Featured    *eventDTO                `json:"featured,omitempty"`
	Unavailable bool                     `json:"unavailable"`
}

// handleEvents returns the filtered, sorted (and optionally grouped) events.
//
// GET /api/events?search=&category=&status=&year=&sort=&group=year
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crit, err := filter.ParseCriteria(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.catalog.Snapshot()
	today := s.catalog.Today()
	marked := s.bookmarkedSet(r.Context(), clientID(w, r))

	visible := toEventDTOs(filter.Events(snap.Events, crit, today), today, marked)
	resp := eventsResponse{
		Total:       len(visible),
		Categories:  filter.Categories(snap.Events),
		Years:       filter.Years(snap.Events),
		Unavailable: snap.IsUnavailable(records.Events),
	}
	if f, ok := filter.Featured(snap.Events, today); ok {
		dto := toEventDTO(f, today, marked)
		resp.Featured = &dto
	}

	switch strings.ToLower(q.Get("group")) {
	case "":
		resp.Events = visible
	case "year":
		resp.Groups = filter.GroupBy(visible, func(e eventDTO) string { return filter.EventYear(e.Event) })
	default:
		writeError(w, http.StatusBadRequest, "unknown group "+strconv.Quote(q.Get("group")))
		return
	}

	appLog.Debug("api events",
		"search", crit.Search,
		"category", crit.Category,
		"status", crit.Status,
		"year", crit.Year,
		"sort", crit.Sort,
		"matched", resp.Total,
	)
	writeJSON(w, http.StatusOK, resp)
}

// handleEvent returns one event by id.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	marked := s.bookmarkedSet(r.Context(), clientID(w, r))
	writeJSON(w, http.StatusOK, toEventDTO(e, s.catalog.Today(), marked))
}

// lookupEvent resolves the {id} path value, writing a 404 when absent.
func (s *Server) lookupEvent(w http.ResponseWriter, r *http.Request) (model.Event, bool) {
	id := model.ID(strings.TrimSpace(r.PathValue("id")))
	e, ok := s.catalog.Snapshot().Event(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return model.Event{}, false
	}
	return e, true
}

type homeResponse struct {
	Banners      []model.Banner      `json:"banners"`
	Featured     *eventDTO           `json:"featured,omitempty"`
	Upcoming     []eventDTO          `json:"upcoming"`
	Testimonials []model.Testimonial `json:"testimonials"`
	Unavailable  []string            `json:"unavailable"`
}

// handleHome returns everything the landing page shows.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	today := s.catalog.Today()
	marked := s.bookmarkedSet(r.Context(), clientID(w, r))

	resp := homeResponse{
		Banners:      snap.Banners,
		Upcoming:     toEventDTOs(filter.Upcoming(snap.Events, today, s.cfg.UpcomingLimit), today, marked),
		Testimonials: snap.Testimonials,
		Unavailable:  []string{},
	}
	if f, ok := filter.Featured(snap.Events, today); ok {
		dto := toEventDTO(f, today, marked)
		resp.Featured = &dto
	}
	for _, name := range []string{records.Banners, records.Events, records.Testimonials} {
		if snap.IsUnavailable(name) {
			resp.Unavailable = append(resp.Unavailable, name)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type calendarResponse struct {
	calendar.Month
	Today       day.Date `json:"today"`
	Unavailable bool     `json:"unavailable"`
}

// handleCalendar returns the month grid with per-day counts and category
// markers.
//
// GET /api/calendar?year=2025&month=1 (defaults to the current month)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	today := s.catalog.Today()
	year, month := today.Year, today.Month

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(m)
	}

	snap := s.catalog.Snapshot()
	writeJSON(w, http.StatusOK, calendarResponse{
		Month:       snap.Calendar.Month(year, month, s.weekStart, s.cfg.MarkerCap),
		Today:       today,
		Unavailable: snap.IsUnavailable(records.Events),
	})
}

type dayResponse struct {
	Date   day.Date   `json:"date"`
	Events []eventDTO `json:"events"`
}

// handleCalendarDay lists the events of one day.
//
// GET /api/calendar/day?date=2025-01-10
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	d, err := day.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.catalog.Snapshot()
	marked := s.bookmarkedSet(r.Context(), clientID(w, r))
	writeJSON(w, http.StatusOK, dayResponse{
		Date:   d,
		Events: toEventDTOs(snap.Calendar.Lookup(d), s.catalog.Today(), marked),
	})
}

type galleryResponse struct {
	Images      []model.GalleryImage               `json:"images"`
	Groups      []filter.Group[model.GalleryImage] `json:"groups,omitempty"`
	Total       int                                `json:"total"`
	Categories  []string                           `json:"categories"`
	Unavailable bool                               `json:"unavailable"`
}

// handleGallery filters the gallery.
//
// GET /api/gallery?category=&year=&search=&group=year
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crit, err := filter.ParseGalleryCriteria(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.catalog.Snapshot()
	images := filter.Gallery(snap.Gallery, crit)
	resp := galleryResponse{
		Total:       len(images),
		Categories:  filter.GalleryCategories(snap.Gallery),
		Unavailable: snap.IsUnavailable(records.Gallery),
	}
	switch strings.ToLower(q.Get("group")) {
	case "":
		resp.Images = images
	case "year":
		resp.Groups = filter.GroupGalleryByYear(images)
	default:
		writeError(w, http.StatusBadRequest, "unknown group "+strconv.Quote(q.Get("group")))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// collectionResponse wraps a plain list collection.
type collectionResponse[T any] struct {
	Items       []T  `json:"items"`
	Unavailable bool `json:"unavailable"`
}

func writeCollection[T any](w http.ResponseWriter, snap *site.Snapshot, name string, items []T) {
	writeJSON(w, http.StatusOK, collectionResponse[T]{
		Items:       items,
		Unavailable: snap.IsUnavailable(name),
	})
}

func (s *Server) handleContacts(w http.ResponseWriter, _ *http.Request) {
	snap := s.catalog.Snapshot()
	writeCollection(w, snap, records.Contacts, snap.Contacts)
}

func (s *Server) handleTestimonials(w http.ResponseWriter, _ *http.Request) {
	snap := s.catalog.Snapshot()
	writeCollection(w, snap, records.Testimonials, snap.Testimonials)
}

func (s *Server) handleBanners(w http.ResponseWriter, _ *http.Request) {
	snap := s.catalog.Snapshot()
	writeCollection(w, snap, records.Banners, snap.Banners)
}

// bookmarkedSet loads the caller's bookmarks for annotating events. A
// storage failure is logged and yields no marks.
func (s *Server) bookmarkedSet(ctx context.Context, owner string) map[model.ID]bool {
	ids, err := s.bookmarks.For(owner).List(ctx)
	if err != nil {
		appLog.Error("bookmark list failed", err, "owner", owner)
		return nil
	}
	marked := make(map[model.ID]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	return marked
}
