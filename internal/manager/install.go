package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/addonkit/addonkit/internal/catalog"
	"github.com/addonkit/addonkit/internal/fsutil"
	"github.com/addonkit/addonkit/internal/state"
)

// InstallRequest describes one install/update operation.
type InstallRequest struct {
	// Extension is the durable extension name the operation targets.
	Extension string

	// Release is the validated release to install.
	Release catalog.Release

	// InstallOptional selects whether optional-dependency artifacts are
	// fetched alongside the main and required artifacts.
	InstallOptional bool

	// OnProgress receives the count-weighted overall fraction (0..1).
	// Optional.
	OnProgress func(float64)

	// OnDone receives the final outcome exactly once, on every exit path:
	// success (nil), failure, or cancellation. Optional.
	OnDone func(error)
}

// InstallOrUpdate starts an asynchronous install or update of the requested
// release. Invalid arguments and per-identity conflicts are rejected
// synchronously; from then on the outcome is delivered through OnDone and the
// returned task.
//
// Installing the exact version and optional-dependency choice that is already
// present is a no-op that still completes through OnDone. A failed or
// cancelled attempt leaves the previously installed version untouched and no
// artifact of the attempted version on disk.
func (m *Manager) InstallOrUpdate(ctx context.Context, req InstallRequest) (*Task, error) {
	if req.Extension == "" {
		return nil, fmt.Errorf("%w: extension name is empty", fsutil.ErrInvalidArgument)
	}
	if req.Release.Name == "" || req.Release.MainURL == "" {
		return nil, fmt.Errorf("%w: release is empty", fsutil.ErrInvalidArgument)
	}

	id := state.Identity(req.Extension)
	if !m.guard.acquire(id) {
		return nil, conflictErr(req.Extension)
	}

	opCtx, cancel := context.WithCancel(ctx)
	task := newTask(cancel)

	go func() {
		defer m.guard.release(id)
		defer cancel()

		err := m.runInstall(opCtx, req)
		if err != nil {
			m.log.Warn().Str("extension", req.Extension).Str("release", req.Release.Name).
				Err(err).Msg("install failed")
		}
		if req.OnDone != nil {
			req.OnDone(err)
		}
		task.finish(err)
	}()

	return task, nil
}

func (m *Manager) runInstall(ctx context.Context, req InstallRequest) error {
	entry := m.store.Entry(req.Extension)
	cur, installed := entry.Get()
	prog := newTracker(req.OnProgress)

	if installed && cur.Version == req.Release.Name {
		if cur.OptionalInstalled == req.InstallOptional {
			// Already at the requested state: no filesystem writes.
			prog.complete()
			return nil
		}
		if req.InstallOptional {
			return m.addOptional(ctx, entry, cur, req.Release, prog)
		}
		return m.dropOptional(entry, cur, req.Release, prog)
	}

	return m.installFull(ctx, entry, cur, installed, req, prog)
}

// installFull downloads the complete artifact set into a staging directory,
// then commits: previous artifacts removed, staged ones renamed into place,
// record replaced. Any failure before the commit leaves the previous
// installation untouched.
func (m *Manager) installFull(ctx context.Context, entry *state.Entry, cur state.Record, installed bool, req InstallRequest, prog *tracker) error {
	urls := req.Release.ArtifactURLs(req.InstallOptional)
	prog.setTotal(len(urls))

	dir := m.dirFn()
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: preparing extension directory: %v", ErrIO, err)
	}

	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return fmt.Errorf("%w: creating staging directory: %v", ErrIO, err)
	}
	defer os.RemoveAll(staging)

	names, err := m.downloadAll(ctx, urls, staging, prog)
	if err != nil {
		return err
	}

	// Commit point: from here the previous version's artifacts go away.
	if installed {
		if err := m.removeAttributed(dir, cur.Files); err != nil {
			return err
		}
	}

	if err := m.promoteStaged(staging, dir, names); err != nil {
		// Old artifacts are gone and the new set is incomplete; reflect
		// reality and report the failure.
		_ = entry.Clear()
		return err
	}

	if err := entry.Set(state.Record{
		Version:           req.Release.Name,
		OptionalInstalled: req.InstallOptional,
		Files:             names,
	}); err != nil {
		return err
	}

	prog.complete()
	m.log.Info().Str("extension", req.Extension).Str("release", req.Release.Name).
		Bool("optional", req.InstallOptional).Msg("extension installed")
	return nil
}

// addOptional handles the same-version transition optional=false→true by
// fetching exactly the optional-dependency artifacts.
func (m *Manager) addOptional(ctx context.Context, entry *state.Entry, cur state.Record, rel catalog.Release, prog *tracker) error {
	urls := rel.OptionalDependencyURLs
	if len(urls) == 0 {
		if err := entry.Set(state.Record{Version: cur.Version, OptionalInstalled: true, Files: cur.Files}); err != nil {
			return err
		}
		prog.complete()
		return nil
	}
	prog.setTotal(len(urls))

	dir := m.dirFn()
	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return fmt.Errorf("%w: creating staging directory: %v", ErrIO, err)
	}
	defer os.RemoveAll(staging)

	names, err := m.downloadAll(ctx, urls, staging, prog)
	if err != nil {
		return err
	}
	if err := m.promoteStaged(staging, dir, names); err != nil {
		return err
	}

	files := append(append([]string(nil), cur.Files...), names...)
	if err := entry.Set(state.Record{Version: cur.Version, OptionalInstalled: true, Files: files}); err != nil {
		return err
	}
	prog.complete()
	return nil
}

// dropOptional handles the same-version transition optional=true→false by
// deleting exactly the optional-dependency artifacts.
func (m *Manager) dropOptional(entry *state.Entry, cur state.Record, rel catalog.Release, prog *tracker) error {
	optional := make(map[string]bool, len(rel.OptionalDependencyURLs))
	for _, u := range rel.OptionalDependencyURLs {
		if name, err := fsutil.FileNameFromURI(u); err == nil {
			optional[name] = true
		}
	}

	dir := m.dirFn()
	kept := make([]string, 0, len(cur.Files))
	var toRemove []string
	for _, name := range cur.Files {
		if optional[name] {
			toRemove = append(toRemove, name)
		} else {
			kept = append(kept, name)
		}
	}

	if err := m.removeAttributed(dir, toRemove); err != nil {
		return err
	}
	if err := entry.Set(state.Record{Version: cur.Version, OptionalInstalled: false, Files: kept}); err != nil {
		return err
	}
	prog.complete()
	return nil
}

// downloadAll fetches every URL into stagingDir, advancing the tracker one
// artifact at a time, and returns the staged file names.
func (m *Manager) downloadAll(ctx context.Context, urls []string, stagingDir string, prog *tracker) ([]string, error) {
	names := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, err := fsutil.FileNameFromURI(rawURL)
		if err != nil {
			return nil, err
		}

		if err := m.downloadArtifact(ctx, rawURL, filepath.Join(stagingDir, name), prog.update); err != nil {
			return nil, err
		}
		prog.artifactDone()
		names = append(names, name)
	}
	return names, nil
}

// promoteStaged renames the staged artifacts into the extension directory.
// On failure the files moved so far are removed again.
func (m *Manager) promoteStaged(stagingDir, dir string, names []string) error {
	var moved []string
	for _, name := range names {
		src := filepath.Join(stagingDir, name)
		dst := filepath.Join(dir, name)
		if err := os.Rename(src, dst); err != nil {
			for _, prev := range moved {
				_ = os.Remove(filepath.Join(dir, prev))
			}
			return fmt.Errorf("%w: placing artifact %s: %v", ErrIO, name, err)
		}
		moved = append(moved, name)
	}
	return nil
}

// removeAttributed deletes files previously attributed to an installation.
// Every path is confirmed to be a descendant of the extension directory
// before deletion, so malformed metadata can never reach outside it.
func (m *Manager) removeAttributed(dir string, names []string) error {
	var errs []error
	for _, name := range names {
		path := filepath.Join(dir, name)
		ok, err := fsutil.IsAncestorOf(dir, path)
		if err != nil || !ok {
			m.log.Warn().Str("path", path).Msg("refusing to delete path outside extension directory")
			continue
		}
		if err := fsutil.DeleteRecursively(path); err != nil {
			errs = append(errs, fmt.Errorf("%w: deleting %s: %v", ErrIO, path, err))
		}
	}
	return errors.Join(errs...)
}

// Uninstall starts an asynchronous removal of the named extension's artifacts
// and installation record. It fails synchronously with ErrNotInstalled when
// no record exists, and with ErrConflict while another operation is in flight
// for the same identity.
func (m *Manager) Uninstall(ctx context.Context, name string, onDone func(error)) (*Task, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: extension name is empty", fsutil.ErrInvalidArgument)
	}

	id := state.Identity(name)
	if !m.guard.acquire(id) {
		return nil, conflictErr(name)
	}

	entry := m.store.Entry(name)
	rec, installed := entry.Get()
	if !installed {
		m.guard.release(id)
		return nil, fmt.Errorf("%w: %q", ErrNotInstalled, name)
	}

	_, cancel := context.WithCancel(ctx)
	task := newTask(cancel)

	go func() {
		defer m.guard.release(id)
		defer cancel()

		err := m.removeAttributed(m.dirFn(), rec.Files)
		if err == nil {
			err = entry.Clear()
		}
		if err != nil {
			m.log.Warn().Str("extension", name).Err(err).Msg("uninstall failed")
		} else {
			m.log.Info().Str("extension", name).Str("release", rec.Version).Msg("extension uninstalled")
		}
		if onDone != nil {
			onDone(err)
		}
		task.finish(err)
	}()

	return task, nil
}
