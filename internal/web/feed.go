package web

import (
	"net/http"
	"strings"

	"campusevents/internal/export"
	"campusevents/internal/filter"
	"campusevents/internal/model"
	"campusevents/internal/site"
)

const feedName = "Campus Events"

// handleFeed serves the events as one iCalendar feed. Without a query it
// holds every event; with one, the /api/events criteria apply.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()

	if r.URL.RawQuery != "" {
		crit, err := filter.ParseCriteria(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		events := filter.Events(snap.Events, crit, s.catalog.Today())
		writeCalendar(w, "events.ics", s.renderFeed(snap, events))
		return
	}

	s.feedMu.RLock()
	fc := s.feedCache
	s.feedMu.RUnlock()
	if fc == nil || fc.snap != snap {
		fc = &feedCache{snap: snap, body: s.renderFeed(snap, snap.Events)}
		s.feedMu.Lock()
		s.feedCache = fc
		s.feedMu.Unlock()
	}
	writeCalendar(w, "events.ics", fc.body)
}

// handleEventFeed serves /events/{id}.ics for a single event.
func (s *Server) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	id, ok := strings.CutSuffix(file, ".ics")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	snap := s.catalog.Snapshot()
	e, found := snap.Event(model.ID(id))
	if !found {
		http.NotFound(w, r)
		return
	}
	writeCalendar(w, file, s.renderFeed(snap, []model.Event{e}))
}

func (s *Server) renderFeed(snap *site.Snapshot, events []model.Event) string {
	return export.Calendar(export.Feed{
		Name:    feedName,
		BaseURL: s.cfg.BaseURL,
		Stamp:   snap.LoadedAt,
	}, events)
}

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
