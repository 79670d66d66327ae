// Package bookmark keeps the set of bookmarked event ids for each visitor.
//
// A set lives under a single key of a KV store as a JSON array of ids and
// is written back in full on every toggle, so a reload always sees the
// latest state. The KV backend (memory, file or SQLite) is swappable.
package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	appLog "campusevents/internal/log"
	"campusevents/internal/model"
)

// KeyPrefix is prepended to the owner id to form the storage key.
const KeyPrefix = "bookmarks"

// ErrEmptyID is returned when toggling or querying an empty id.
var ErrEmptyID = errors.New("bookmark id is empty")

// KV is the minimal key-value store a bookmark set needs.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
}

// Store hands out per-owner bookmark sets over one KV backend. All sets
// share one lock, so read-modify-write cycles never interleave.
type Store struct {
	kv KV
	mu sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// For returns the bookmark set of owner (e.g. a browser client id). An
// empty owner maps to the shared "bookmarks" key.
func (s *Store) For(owner string) *Set {
	key := KeyPrefix
	if owner = strings.TrimSpace(owner); owner != "" {
		key += ":" + owner
	}
	return &Set{store: s, key: key}
}

// Set is one owner's bookmarks.
type Set struct {
	store *Store
	key   string
}

// Key returns the storage key of the set.
func (b *Set) Key() string { return b.key }

// IsBookmarked reports whether id is currently a member.
func (b *Set) IsBookmarked(ctx context.Context, id model.ID) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	ids, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(ids, id) >= 0, nil
}

// Toggle adds id if absent and removes it if present, persists the full
// set and returns the new membership state.
func (b *Set) Toggle(ctx context.Context, id model.ID) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	ids, err := b.load(ctx)
	if err != nil {
		return false, err
	}

	member := false
	if i := indexOf(ids, id); i >= 0 {
		ids = append(ids[:i], ids[i+1:]...)
	} else {
		ids = append(ids, id)
		member = true
	}

	if err := b.save(ctx, ids); err != nil {
		return false, err
	}
	appLog.Debug("bookmark toggled", "key", b.key, "id", id, "bookmarked", member)
	return member, nil
}

// List returns the bookmarked ids in the order they were added.
func (b *Set) List(ctx context.Context) ([]model.ID, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return b.load(ctx)
}

func (b *Set) load(ctx context.Context) ([]model.ID, error) {
	raw, ok, err := b.store.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	ids := make([]model.ID, 0)
	if !ok || len(raw) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt value is replaced on the next toggle.
		appLog.Warn("bookmark value is not a JSON id array; treating as empty", "key", b.key, "err", err)
		return make([]model.ID, 0), nil
	}
	return dedupe(ids), nil
}

func (b *Set) save(ctx context.Context, ids []model.ID) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	if err := b.store.kv.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("write bookmarks: %w", err)
	}
	return nil
}

func indexOf(ids []model.ID, id model.ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []model.ID) []model.ID {
	seen := make(map[model.ID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
