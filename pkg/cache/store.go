// Package cache provides a file-backed JSON cache with TTL and
// stale-read fallback. Each logical key maps to one file, fully
// overwritten on write so readers always see either the old or the new
// entry.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"sportguide-go/pkg/logging"
)

// Logical dataset keys with distinct TTLs.
const (
	KeySports   = "sports_list"
	KeySnapshot = "kodi_data"
)

// entry is the on-disk shape of a cached value.
type entry struct {
	Data         json.RawMessage `json:"data"`
	CreatedAt    float64         `json:"created_at"`
	ExpiresAt    float64         `json:"expires_at"`
	CreatedHuman string          `json:"created_human"`
}

// Store is a file-per-key cache store.
type Store struct {
	dir string
	log *logging.Logger
	now func() time.Time
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &Store{
		dir: dir,
		log: log.WithComponent("cache"),
		now: time.Now,
	}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get decodes the cached value for key into out. It reports false if the
// entry is absent, unreadable or past its TTL. Expired entries are left
// on disk for stale-read fallback.
func (s *Store) Get(key string, out any) bool {
	ok, expired := s.GetExtended(key, out)
	return ok && !expired
}

// GetExtended decodes the cached value for key into out and additionally
// reports whether the entry is past its TTL, so callers can fall back to
// stale data when a fresh fetch fails.
func (s *Store) GetExtended(key string, out any) (ok bool, expired bool) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return false, true
	}

	var e entry
	if err := sonic.Unmarshal(raw, &e); err != nil {
		// Malformed cache counts as a miss, never an error.
		s.log.Error("failed to read cache entry", "key", key, "error", err)
		return false, true
	}
	if err := sonic.Unmarshal(e.Data, out); err != nil {
		s.log.Error("failed to decode cache entry", "key", key, "error", err)
		return false, true
	}

	return true, float64(s.now().Unix()) > e.ExpiresAt
}

// Set stores data under key with the given TTL, atomically replacing any
// prior entry.
func (s *Store) Set(key string, data any, ttlHours float64) error {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache data for %s: %w", key, err)
	}

	now := s.now()
	e := entry{
		Data:         raw,
		CreatedAt:    float64(now.Unix()),
		ExpiresAt:    float64(now.Unix()) + ttlHours*3600,
		CreatedHuman: now.Format(time.RFC3339),
	}

	encoded, err := sonic.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry for %s: %w", key, err)
	}

	// Write to a temp file then rename so a concurrent reader never sees
	// a partial entry.
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file for %s: %w", key, err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file for %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache entry for %s: %w", key, err)
	}

	s.log.Debug("cache entry written", "key", key, "ttl_hours", ttlHours)
	return nil
}

// Clear deletes one entry, or every entry when key is empty.
func (s *Store) Clear(key string) error {
	if key != "" {
		err := os.Remove(s.path(key))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear cache entry %s: %w", key, err)
		}
		return nil
	}

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, f.Name())); err != nil {
			s.log.Warn("failed to delete cache file", "file", f.Name(), "error", err)
		}
	}
	return nil
}

// Cleanup deletes entries whose file modification time is older than
// maxAge, independent of TTL. Failures on individual entries do not
// abort the scan. Intended to be invoked by the host's own scheduling.
func (s *Store) Cleanup(maxAge time.Duration) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error("cache cleanup failed", "error", err)
		return
	}

	cutoff := s.now().Add(-maxAge)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, f.Name())
			if err := os.Remove(path); err != nil {
				continue
			}
			s.log.Debug("deleted stale cache file", "file", f.Name())
		}
	}
}
