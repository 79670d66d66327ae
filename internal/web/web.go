package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/bookmark"
	"campusevents/internal/calendar"
	"campusevents/internal/config"
	appLog "campusevents/internal/log"
	"campusevents/internal/site"
)

// clientCookie identifies a browser so its bookmarks survive reloads.
const clientCookie = "campus_client"

// maxFormBody bounds JSON bodies of form submissions.
const maxFormBody = 64 << 10

// Server serves the JSON API, the iCalendar feeds, the preview image and
// the embedded UI.
type Server struct {
	cfg       *config.Config
	catalog   *site.Catalog
	bookmarks *bookmark.Store
	debug     bool
	mux       *http.ServeMux

	weekStart time.Weekday

	// Rendered /events.ics for the current snapshot. Rebuilt when the
	// catalog swaps in a new snapshot.
	feedMu    sync.RWMutex
	feedCache *feedCache
}

type feedCache struct {
	snap *site.Snapshot
	body string
}

// embeddedStatic contains the browser UI (index.html, calendar.html and
// their assets).
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, catalog *site.Catalog, bookmarks *bookmark.Store, debug bool) *Server {
	s := &Server{
		cfg:       cfg,
		catalog:   catalog,
		bookmarks: bookmarks,
		debug:     debug,
		mux:       http.NewServeMux(),
		weekStart: calendar.ParseWeekStart(cfg.WeekStart),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	if s.debug {
		return logRequests(s.mux)
	}
	return s.mux
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/home", s.handleHome)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleEvent)
	s.mux.HandleFunc("POST /api/events/{id}/register", s.handleRegister)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/calendar/day", s.handleCalendarDay)
	s.mux.HandleFunc("GET /api/gallery", s.handleGallery)
	s.mux.HandleFunc("GET /api/contacts", s.handleContacts)
	s.mux.HandleFunc("GET /api/testimonials", s.handleTestimonials)
	s.mux.HandleFunc("GET /api/banners", s.handleBanners)

	s.mux.HandleFunc("GET /api/bookmarks", s.handleBookmarks)
	s.mux.HandleFunc("GET /api/bookmarks/{id}", s.handleBookmark)
	s.mux.HandleFunc("POST /api/bookmarks/{id}/toggle", s.handleToggleBookmark)

	s.mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	s.mux.HandleFunc("POST /api/contact", s.handleContactForm)

	s.mux.HandleFunc("GET /events.ics", s.handleFeed)
	s.mux.HandleFunc("GET /events/{file}", s.handleEventFeed)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	// Everything else falls back to the embedded UI.
	s.mux.Handle("GET /", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded UI from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Unknown API paths get a JSON 404, never HTML.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// handlePreview serves the last captured calendar PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Preview.Path == "" {
		http.NotFound(w, r)
		return
	}
	// ServeFile maps a missing file to 404.
	http.ServeFile(w, r, s.cfg.Preview.Path)
}

// clientID returns the caller's client id, issuing a new one in a cookie
// when the request has none or an invalid one.
func clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(clientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"took", time.Since(start).Round(time.Microsecond),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
