// Package history tracks and persists per-file playback positions so a file
// reopened later resumes where it was left.
package history

import (
	"sort"
	"time"

	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// Entry is one saved playback position, keyed by absolute file path.
type Entry struct {
	Path      string    `json:"path"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a disk-backed registry of playback positions. It satisfies the
// engine's resume-store contract.
type Store struct {
	cacher *gache.Cache[map[string]*Entry]
}

// NewStore opens the registry under the history directory.
func NewStore() *Store {
	return &Store{
		cacher: gache.New[map[string]*Entry](
			&gache.Options{
				Path:       where.History(),
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

// get returns the full record map, empty when nothing was saved yet.
func (s *Store) get() (map[string]*Entry, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// LastPosition returns the saved position for a path, if any.
func (s *Store) LastPosition(path string) mo.Option[float64] {
	saved, err := s.get()
	if err != nil {
		return mo.None[float64]()
	}
	if entry, ok := saved[path]; ok {
		return mo.Some(entry.Position)
	}
	return mo.None[float64]()
}

// SavePosition records the current position for a path, overwriting any
// previous record.
func (s *Store) SavePosition(path string, position, duration float64) error {
	saved, err := s.get()
	if err != nil {
		return err
	}

	saved[path] = &Entry{
		Path:      path,
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}
	return s.cacher.Set(saved)
}

// Entries returns every saved record, most recently updated first.
func (s *Store) Entries() ([]*Entry, error) {
	saved, err := s.get()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(saved))
	for _, e := range saved {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// Remove deletes the record for a path.
func (s *Store) Remove(path string) error {
	saved, err := s.get()
	if err != nil {
		return err
	}
	delete(saved, path)
	return s.cacher.Set(saved)
}

// Clear drops every record.
func (s *Store) Clear() error {
	return s.cacher.Set(make(map[string]*Entry))
}
