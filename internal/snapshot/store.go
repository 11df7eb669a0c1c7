// Package snapshot persists scan results as a single JSON document with
// atomic replacement, so readers always see either the previous complete
// snapshot or the new one, never a partial write.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blackwell-systems/repowatch/internal/scanner"
)

var (
	// ErrMissing means no snapshot has been written yet.
	ErrMissing = errors.New("snapshot not found")

	// ErrInvalid means the snapshot file exists but is not a well formed
	// snapshot document.
	ErrInvalid = errors.New("snapshot invalid")
)

// Store reads and writes the snapshot file at a fixed path. Writes go
// through a same-directory temp file and rename, and are serialized by a
// mutex so a watcher update cannot race a full-scan save.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for the given snapshot path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the snapshot atomically, creating parent directories as
// needed. RepoCount is normalized to the repo list length before writing.
func (s *Store) Save(snap *scanner.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(snap)
}

func (s *Store) writeLocked(snap *scanner.Snapshot) error {
	snap.RepoCount = len(snap.Repos)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	// Temp file in the destination directory so the rename stays on one
	// filesystem and is atomic.
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads and validates the snapshot. A missing file returns ErrMissing;
// a file that fails to parse or violates the document shape returns
// ErrInvalid.
func (s *Store) Load() (*scanner.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*scanner.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMissing
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap scanner.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func validate(snap *scanner.Snapshot) error {
	if snap.GeneratedAt.IsZero() {
		return fmt.Errorf("%w: missing generated_at", ErrInvalid)
	}
	if snap.RepoCount != len(snap.Repos) {
		return fmt.Errorf("%w: repo_count %d does not match %d repos",
			ErrInvalid, snap.RepoCount, len(snap.Repos))
	}
	seen := make(map[string]struct{}, len(snap.Repos))
	for _, r := range snap.Repos {
		if r.Name == "" {
			return fmt.Errorf("%w: repo with empty name", ErrInvalid)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: duplicate repo name %q", ErrInvalid, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// UpdateRepo replaces (or appends) a single repo's metrics in the stored
// snapshot and rewrites it atomically with a fresh generated_at. Used by the
// watcher to refresh one repo without a full scan.
func (s *Store) UpdateRepo(m scanner.RepoMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if errors.Is(err, ErrMissing) {
		snap = &scanner.Snapshot{}
	} else if err != nil {
		return err
	}

	replaced := false
	for i := range snap.Repos {
		if snap.Repos[i].Name == m.Name {
			snap.Repos[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Repos = append(snap.Repos, m)
	}
	snap.GeneratedAt = time.Now().UTC()
	return s.writeLocked(snap)
}
