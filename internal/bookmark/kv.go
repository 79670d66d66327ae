package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryKV keeps values in process memory. State is lost on restart.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

// FileKV stores all keys in one JSON object on disk. Every Set rewrites
// the file atomically (temp file + rename, 0600).
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV returns a FileKV at path. The file and its directory are
// created on the first Set.
func NewFileKV(path string) (*FileKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bookmark file path is empty")
	}
	return &FileKV{path: filepath.Clean(path)}, nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, false, err
	}
	v, ok := all[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	all[key] = string(value)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path, data)
}

func (f *FileKV) readAll() (map[string]string, error) {
	all := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return all, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return all, nil
}

// writeFileAtomic writes data next to path and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".campusevents-kv-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Backend names accepted by OpenKV.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// OpenKV opens the configured backend. The returned close func is never
// nil.
func OpenKV(backend, path string) (KV, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryKV(), noop, nil
	case BackendFile, "":
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case BackendSQLite:
		kv, err := OpenSQLiteKV(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown bookmark backend %q", backend)
	}
}
