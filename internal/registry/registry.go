// Package registry maintains the persisted, ordered list of known catalog
// sources: lightweight pointers to where a catalog can be fetched, distinct
// from the fetched catalog content itself.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/addonkit/addonkit/internal/event"
)

// ErrDuplicateName reports an Add of a source whose name is already registered.
var ErrDuplicateName = errors.New("catalog source name already registered")

// Source is a persisted pointer to where a catalog can be fetched.
// Sources are unique by name within the registry.
type Source struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URI         string `yaml:"uri"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is the mutable, persisted list of known catalog sources.
//
// Reads lock only the in-memory list; mutations additionally hold a global
// mutation lock across apply-and-persist so the persisted representation
// stays consistent, without readers ever blocking on disk.
type Registry struct {
	path string
	log  zerolog.Logger

	mu      sync.RWMutex
	sources []Source

	writeMu sync.Mutex
	hub     *event.Hub[[]Source]
}

// Load reads the persisted source list from path. A missing file yields an
// empty registry.
func Load(path string, log zerolog.Logger) (*Registry, error) {
	r := &Registry{
		path: path,
		log:  log,
		hub:  event.NewHub[[]Source](),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog sources %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog sources %s: %w", path, err)
	}
	r.sources = file.Sources
	return r, nil
}

// List returns the sources in registration order. The returned slice is a
// copy; mutating it does not affect the registry.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.sources...)
}

// Find returns the source with the given name, if registered.
func (r *Registry) Find(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		if src.Name == name {
			return src, true
		}
	}
	return Source{}, false
}

// Add appends a source and persists the list. It fails with ErrDuplicateName
// if a source of the same name already exists.
func (r *Registry) Add(src Source) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	for _, existing := range r.sources {
		if existing.Name == src.Name {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateName, src.Name)
		}
	}
	r.sources = append(r.sources, src)
	snapshot := append([]Source(nil), r.sources...)
	r.mu.Unlock()

	if err := r.persist(snapshot); err != nil {
		// Roll back the in-memory append so memory and disk agree.
		r.mu.Lock()
		r.sources = r.sources[:len(r.sources)-1]
		r.mu.Unlock()
		return err
	}

	r.log.Info().Str("source", src.Name).Str("uri", src.URI).Msg("catalog source added")
	r.hub.Publish(snapshot)
	return nil
}

// Remove deletes the named sources and persists the result. Removing a source
// that is already absent is a no-op, not an error.
func (r *Registry) Remove(names ...string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}

	r.mu.Lock()
	previous := r.sources
	kept := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		if !drop[src.Name] {
			kept = append(kept, src)
		}
	}
	if len(kept) == len(previous) {
		r.mu.Unlock()
		return nil
	}
	r.sources = kept
	snapshot := append([]Source(nil), kept...)
	r.mu.Unlock()

	if err := r.persist(snapshot); err != nil {
		r.mu.Lock()
		r.sources = previous
		r.mu.Unlock()
		return err
	}

	r.log.Info().Strs("sources", names).Msg("catalog sources removed")
	r.hub.Publish(snapshot)
	return nil
}

// Subscribe returns a channel receiving the full source list after each
// mutation, plus a cancel function.
func (r *Registry) Subscribe() (<-chan []Source, func()) {
	return r.hub.Subscribe()
}

// persist writes the source list atomically: to a temp file first, then
// renamed over the target.
func (r *Registry) persist(sources []Source) error {
	data, err := yaml.Marshal(sourcesFile{Sources: sources})
	if err != nil {
		return fmt.Errorf("encoding catalog sources: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sources-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing catalog sources: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalizing catalog sources: %w", err)
	}
	return nil
}
