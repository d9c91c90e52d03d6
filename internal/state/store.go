// Package state tracks which extension versions are currently installed.
//
// Records are keyed by an identity derived from the extension's durable name,
// so repeated catalog re-fetches referring to "the same" extension resolve to
// the same state. The store snapshots itself to disk after every mutation so
// installations survive restarts.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/addonkit/addonkit/internal/event"
)

// Record describes one installed extension: the release name it was installed
// at, whether optional dependencies were included, and every file attributed
// to the installation.
type Record struct {
	Version           string   `yaml:"version"`
	OptionalInstalled bool     `yaml:"optional_installed"`
	Files             []string `yaml:"files"`
}

// Change is published after every record mutation. A nil Record means the
// extension is no longer installed.
type Change struct {
	Extension string
	Record    *Record
}

type snapshotFile struct {
	Installed map[string]Record `yaml:"installed"`
}

// Identity derives the durable store key from an extension name.
func Identity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Store is a thread-safe map from extension identity to installation record.
type Store struct {
	path string
	log  zerolog.Logger
	hub  *event.Hub[Change]

	mu      sync.Mutex
	entries map[string]*Entry

	saveMu sync.Mutex
}

// Entry is the identity-stable handle for one extension's installation state.
// Repeated Store.Entry calls for the same identity return the same *Entry.
type Entry struct {
	store *Store
	name  string

	mu  sync.RWMutex
	rec *Record
}

// Load reads the installed-state snapshot from path. A missing file yields an
// empty store.
func Load(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		log:     log,
		hub:     event.NewHub[Change](),
		entries: make(map[string]*Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading installed state %s: %w", path, err)
	}

	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing installed state %s: %w", path, err)
	}
	for name, rec := range file.Installed {
		r := rec
		s.entries[Identity(name)] = &Entry{store: s, name: name, rec: &r}
	}
	return s, nil
}

// Entry returns the handle for the given extension name, creating an empty
// one on first use.
func (s *Store) Entry(name string) *Entry {
	id := Identity(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e
	}
	e := &Entry{store: s, name: name}
	s.entries[id] = e
	return e
}

// Installed returns a snapshot of all current records keyed by extension name.
func (s *Store) Installed() map[string]Record {
	s.mu.Lock()
	entries := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make(map[string]Record)
	for _, e := range entries {
		if rec, ok := e.Get(); ok {
			out[e.name] = rec
		}
	}
	return out
}

// Subscribe returns a channel receiving a Change after every record mutation,
// plus a cancel function.
func (s *Store) Subscribe() (<-chan Change, func()) {
	return s.hub.Subscribe()
}

// Name returns the extension name this entry tracks.
func (e *Entry) Name() string { return e.name }

// Get returns the current record. ok is false when the extension is not
// installed.
func (e *Entry) Get() (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.rec == nil {
		return Record{}, false
	}
	return *e.rec, true
}

// Set replaces the record and persists the store snapshot.
func (e *Entry) Set(rec Record) error {
	e.mu.Lock()
	r := rec
	e.rec = &r
	e.mu.Unlock()

	if err := e.store.persist(); err != nil {
		return err
	}
	e.store.log.Info().Str("extension", e.name).Str("version", rec.Version).
		Bool("optional", rec.OptionalInstalled).Msg("installation recorded")
	e.store.hub.Publish(Change{Extension: e.name, Record: &rec})
	return nil
}

// Clear removes the record and persists the store snapshot. Clearing an
// absent record is a no-op.
func (e *Entry) Clear() error {
	e.mu.Lock()
	wasInstalled := e.rec != nil
	e.rec = nil
	e.mu.Unlock()

	if !wasInstalled {
		return nil
	}
	if err := e.store.persist(); err != nil {
		return err
	}
	e.store.log.Info().Str("extension", e.name).Msg("installation cleared")
	e.store.hub.Publish(Change{Extension: e.name})
	return nil
}

// persist writes the full snapshot atomically: temp file, then rename.
func (s *Store) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	installed := s.Installed()

	data, err := yaml.Marshal(snapshotFile{Installed: installed})
	if err != nil {
		return fmt.Errorf("encoding installed state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".installed-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing installed state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalizing installed state: %w", err)
	}
	return nil
}
