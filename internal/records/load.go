// Package records loads the static JSON collections the site is built
// from (events, gallery, testimonials, banners, contacts).
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appLog "campusevents/internal/log"
)

// Collection names, also the file stem of each source file.
const (
	Events       = "events"
	Gallery      = "gallery"
	Testimonials = "testimonials"
	Banners      = "banners"
	Contacts     = "contacts"
)

// NewSource picks an HTTPSource for http(s) locations and a DirSource for
// everything else.
func NewSource(location, cacheDir string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, cacheDir, timeout)
	}
	return DirSource{Dir: location}
}

// Decode parses a JSON array of records. A null or empty body decodes to
// an empty slice.
func Decode[T any](body []byte) ([]T, error) {
	out := make([]T, 0)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of records")
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Load fetches and decodes collection name from src.
func Load[T any](ctx context.Context, src Source, name string) ([]T, error) {
	body, err := src.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	items, err := Decode[T](body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

// Result is a loaded collection plus the failure that emptied it, if any.
type Result[T any] struct {
	Items []T
	Err   error
}

// Unavailable reports whether the collection failed to load.
func (r Result[T]) Unavailable() bool { return r.Err != nil }

// LoadOrEmpty applies the loading-boundary policy: any failure is logged
// and yields an empty collection alongside the error, never a nil slice.
func LoadOrEmpty[T any](ctx context.Context, src Source, name string) Result[T] {
	items, err := Load[T](ctx, src, name)
	if err != nil {
		appLog.Error("collection unavailable; serving empty list", err, "name", name)
		return Result[T]{Items: make([]T, 0), Err: err}
	}
	appLog.Debug("collection loaded", "name", name, "count", len(items))
	return Result[T]{Items: items}
}
