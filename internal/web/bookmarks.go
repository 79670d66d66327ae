package web

import (
	"errors"
	"net/http"
	"strings"

	"campusevents/internal/bookmark"
	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

type bookmarkState struct {
	ID         model.ID `json:"id"`
	Bookmarked bool     `json:"bookmarked"`
}

type bookmarksResponse struct {
	IDs []model.ID `json:"ids"`
	// Events resolves the ids that exist in the current catalog.
	Events []eventDTO `json:"events"`
}

// handleBookmarks lists the caller's bookmarks.
func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	set := s.bookmarks.For(clientID(w, r))
	ids, err := set.List(r.Context())
	if err != nil {
		appLog.Error("bookmark list failed", err, "key", set.Key())
		writeError(w, http.StatusInternalServerError, "failed to read bookmarks")
		return
	}

	snap := s.catalog.Snapshot()
	today := s.catalog.Today()
	marked := make(map[model.ID]bool, len(ids))
	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		marked[id] = true
		if e, ok := snap.Event(id); ok {
			events = append(events, e)
		}
	}
	writeJSON(w, http.StatusOK, bookmarksResponse{
		IDs:    ids,
		Events: toEventDTOs(events, today, marked),
	})
}

// handleBookmark reports whether one id is bookmarked.
func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	id := model.ID(strings.TrimSpace(r.PathValue("id")))
	set := s.bookmarks.For(clientID(w, r))
	ok, err := set.IsBookmarked(r.Context(), id)
	if err != nil {
		writeBookmarkError(w, err, set.Key())
		return
	}
	writeJSON(w, http.StatusOK, bookmarkState{ID: id, Bookmarked: ok})
}

// handleToggleBookmark flips one id and returns the new state.
func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id := model.ID(strings.TrimSpace(r.PathValue("id")))
	set := s.bookmarks.For(clientID(w, r))
	now, err := set.Toggle(r.Context(), id)
	if err != nil {
		writeBookmarkError(w, err, set.Key())
		return
	}
	appLog.Debug("bookmark toggled", "key", set.Key(), "id", id, "bookmarked", now)
	writeJSON(w, http.StatusOK, bookmarkState{ID: id, Bookmarked: now})
}

func writeBookmarkError(w http.ResponseWriter, err error, key string) {
	if errors.Is(err, bookmark.ErrEmptyID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("bookmark store failed", err, "key", key)
	writeError(w, http.StatusInternalServerError, "failed to update bookmarks")
}
