package records

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "campusevents/internal/log"
)

// ErrNotFound is returned when a collection file does not exist.
var ErrNotFound = errors.New("collection not found")

// Source fetches the raw JSON body of a named collection.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads <dir>/<name>.json from the local filesystem.
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(d.Dir, name+".json")
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return body, err
}

// cacheEntry holds HTTP cache metadata for a single collection URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HTTPSource fetches <base>/<name>.json with HTTP caching (ETag /
// Last-Modified) and a disk-backed copy of the last good body, which is
// served again when the origin is unreachable or answers non-OK.
type HTTPSource struct {
	base     string
	client   *http.Client
	cacheDir string
}

// NewHTTPSource creates an HTTPSource for base (e.g.
// "https://cdn.example.edu/data").
//
// cacheDir is the base directory where per-URL cache subdirectories and
// metadata will be stored.
func NewHTTPSource(base, cacheDir string, timeout time.Duration) *HTTPSource {
	if cacheDir == "" {
		// Fallback to a relative dir so that development runs without
		// extra setup.
		cacheDir = "./var/data-cache"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		base:     strings.TrimRight(base, "/"),
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
	}
}

// Fetch implements Source by requesting <base>/<name>.json.
func (h *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return h.FetchURL(ctx, h.base+"/"+url.PathEscape(name)+".json", "application/json")
}

// FetchURL performs a cached conditional GET of u.
func (h *HTTPSource) FetchURL(ctx context.Context, u, accept string) ([]byte, error) {
	cachePath := h.cachePathForURL(u)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	// Conditional headers from cache metadata.
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("collection fetch start", "url", redactURL(u))

	resp, err := h.client.Do(req)
	if err != nil {
		// Network error; if we have a cached body, fall back to it.
		if len(cachedBody) > 0 {
			appLog.Error("collection fetch network error, using cached body", err, "url", redactURL(u))
			return cachedBody, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}

		newMeta := cacheEntry{
			URL:          u,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("collection cache save failed", err, "url", redactURL(u))
		}

		appLog.Info("collection fetch success", "url", redactURL(u), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("collection not modified; using cache", "url", redactURL(u))
		return cachedBody, nil

	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redactURL(u))

	default:
		// Non-OK status: if we have cached data, fall back to it.
		if len(cachedBody) > 0 {
			appLog.Error("collection fetch non-OK, using cached body", errors.New(resp.Status), "url", redactURL(u), "status", resp.StatusCode)
			return cachedBody, nil
		}
		return nil, errors.New(resp.Status)
	}
}

func (h *HTTPSource) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	// Use first 16 hex chars as directory name.
	return filepath.Join(h.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.json"))
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.json"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of u for logging.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "data://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
