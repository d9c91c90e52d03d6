// Package manager coordinates catalogs, installed state, and the shared
// extension directory. It orchestrates install, update, and uninstall as
// guarded asynchronous state transitions with progress reporting.
package manager

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/addonkit/addonkit/internal/catalog"
	"github.com/addonkit/addonkit/internal/registry"
	"github.com/addonkit/addonkit/internal/state"
)

var (
	// ErrConflict reports a second install/update/uninstall requested while
	// one is already in flight for the same extension identity.
	ErrConflict = errors.New("operation already in progress for extension")

	// ErrNotInstalled reports an uninstall of an extension that has no
	// installation record.
	ErrNotInstalled = errors.New("extension is not installed")

	// ErrIO reports a disk failure during artifact write or deletion.
	ErrIO = errors.New("artifact I/O failure")
)

const downloadTimeout = 10 * time.Minute

// Options configures a Manager. Store, Registry, and ExtensionsDir are
// required; the rest have defaults.
type Options struct {
	Store    *state.Store
	Registry *registry.Registry
	Fetcher  *catalog.Fetcher

	// ExtensionsDir returns the current extension directory. It is consulted
	// at the moment of every filesystem operation, never cached, so the host
	// may relocate the directory at any time.
	ExtensionsDir func() string

	// HostVersion returns the host application version used to filter
	// releases by compatible version range.
	HostVersion func() string

	Logger zerolog.Logger
}

// Manager is the façade over catalog fetching, installed state, and the
// extension directory. Construct one instance at startup and pass it by
// handle to all consumers; there is no process-wide singleton.
type Manager struct {
	store       *state.Store
	registry    *registry.Registry
	fetcher     *catalog.Fetcher
	dirFn       func() string
	hostVersion func() string
	client      *http.Client
	guard       *guard
	log         zerolog.Logger
}

// New creates a Manager from the given options.
func New(opts Options) *Manager {
	hostVersion := opts.HostVersion
	if hostVersion == nil {
		hostVersion = func() string { return "" }
	}
	return &Manager{
		store:       opts.Store,
		registry:    opts.Registry,
		fetcher:     opts.Fetcher,
		dirFn:       opts.ExtensionsDir,
		hostVersion: hostVersion,
		client:      &http.Client{Timeout: downloadTimeout},
		guard:       newGuard(),
		log:         opts.Logger,
	}
}

// Registry returns the catalog-source registry.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Store returns the installed-state store.
func (m *Manager) Store() *state.Store { return m.store }

// Fetcher returns the catalog fetcher.
func (m *Manager) Fetcher() *catalog.Fetcher { return m.fetcher }

// ExtensionsDir returns the extension directory as of this moment.
func (m *Manager) ExtensionsDir() string { return m.dirFn() }

// CompatibleReleases returns the releases of ext whose version range contains
// the current host version, preserving catalog order.
func (m *Manager) CompatibleReleases(ext catalog.Extension) []catalog.Release {
	hv := m.hostVersion()
	var out []catalog.Release
	for _, rel := range ext.Releases {
		if rel.Compatibility.Contains(hv) {
			out = append(out, rel)
		}
	}
	return out
}

// LatestCompatible returns the compatible release with the highest release
// name under the host's version ordering. ok is false when no release is
// compatible.
func (m *Manager) LatestCompatible(ext catalog.Extension) (catalog.Release, bool) {
	compatible := m.CompatibleReleases(ext)
	if len(compatible) == 0 {
		return catalog.Release{}, false
	}

	latest := compatible[0]
	for _, rel := range compatible[1:] {
		if cmp, err := catalog.CompareVersions(latest.Name, rel.Name); err == nil && cmp < 0 {
			latest = rel
		}
	}
	return latest, true
}

// FindRelease returns the named release of ext.
func (m *Manager) FindRelease(ext catalog.Extension, name string) (catalog.Release, bool) {
	for _, rel := range ext.Releases {
		if rel.Name == name {
			return rel, true
		}
	}
	return catalog.Release{}, false
}

func conflictErr(name string) error {
	return fmt.Errorf("%w: %q", ErrConflict, name)
}
