//go:build integration

package integration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/addonkit/addonkit/internal/catalog"
	"github.com/addonkit/addonkit/internal/manager"
	"github.com/addonkit/addonkit/internal/registry"
	"github.com/addonkit/addonkit/internal/state"
)

// TestInstallLifecycle walks the full flow a user drives through the CLI:
// register a catalog source, fetch and validate the catalog, pick the latest
// compatible release, install it, reinstall it (no-op), and uninstall it.
func TestInstallLifecycle(t *testing.T) {
	env := setupTestEnv(t, "1.5.0",
		singleExtensionCatalog("graphing", "2.1.0", "1.0.0", "2.0.0",
			[]string{"/deps/plot.jar"}, nil),
		map[string]string{
			"/graphing/2.1.0/main.jar": "main artifact",
			"/deps/plot.jar":           "plot dependency",
		})
	m := env.Manager

	if err := m.Registry().Add(registry.Source{Name: "it", URI: env.CatalogURI()}); err != nil {
		t.Fatalf("registering source: %v", err)
	}

	src, ok := m.Registry().Find("it")
	if !ok {
		t.Fatal("registered source not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := m.Fetcher().Fetch(ctx, src.URI)
	if err != nil {
		t.Fatalf("fetching catalog: %v", err)
	}

	ext, ok := cat.FindExtension("graphing")
	if !ok {
		t.Fatal("extension missing from fetched catalog")
	}
	rel, ok := m.LatestCompatible(ext)
	if !ok {
		t.Fatal("no compatible release")
	}
	if rel.Name != "2.1.0" {
		t.Fatalf("latest compatible = %q, want 2.1.0", rel.Name)
	}

	task, err := m.InstallOrUpdate(ctx, manager.InstallRequest{Extension: ext.Name, Release: rel})
	if err != nil {
		t.Fatalf("starting install: %v", err)
	}
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	for _, name := range []string{"main.jar", "plot.jar"} {
		if _, err := os.Stat(filepath.Join(env.ExtDir, name)); err != nil {
			t.Errorf("artifact %s missing after install: %v", name, err)
		}
	}
	rec, ok := m.Store().Entry("graphing").Get()
	if !ok || rec.Version != "2.1.0" {
		t.Fatalf("record = %+v, want installed 2.1.0", rec)
	}

	// Reinstalling the identical state touches nothing and still succeeds.
	task, err = m.InstallOrUpdate(ctx, manager.InstallRequest{Extension: ext.Name, Release: rel})
	if err != nil {
		t.Fatalf("starting reinstall: %v", err)
	}
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("reinstall failed: %v", err)
	}

	task, err = m.Uninstall(ctx, "graphing", nil)
	if err != nil {
		t.Fatalf("starting uninstall: %v", err)
	}
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("uninstall failed: %v", err)
	}

	if entries, _ := os.ReadDir(env.ExtDir); len(entries) != 0 {
		t.Errorf("extension directory not empty after uninstall: %d entries", len(entries))
	}
	if _, ok := m.Store().Entry("graphing").Get(); ok {
		t.Error("record still present after uninstall")
	}
}

// TestHostVersionFiltering proves a release outside the host's compatibility
// window is never offered for installation.
func TestHostVersionFiltering(t *testing.T) {
	env := setupTestEnv(t, "3.0.0",
		singleExtensionCatalog("graphing", "2.1.0", "1.0.0", "2.0.0", nil, nil),
		map[string]string{"/graphing/2.1.0/main.jar": "main"})
	m := env.Manager

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := m.Fetcher().Fetch(ctx, env.CatalogURI())
	if err != nil {
		t.Fatalf("fetching catalog: %v", err)
	}
	ext, _ := cat.FindExtension("graphing")

	if got := m.CompatibleReleases(ext); len(got) != 0 {
		t.Errorf("host 3.0.0 offered %d releases of a 1.0.0..2.0.0 extension", len(got))
	}
	if _, ok := m.LatestCompatible(ext); ok {
		t.Error("LatestCompatible found a release outside the host window")
	}
}

// TestStatePersistsAcrossRestart reloads the store from disk, as a process
// restart would, and expects the installation to survive.
func TestStatePersistsAcrossRestart(t *testing.T) {
	env := setupTestEnv(t, "1.5.0",
		singleExtensionCatalog("graphing", "1.0.0", "1.0.0", "", nil, nil),
		map[string]string{"/graphing/1.0.0/main.jar": "main"})
	m := env.Manager

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := m.Fetcher().Fetch(ctx, env.CatalogURI())
	if err != nil {
		t.Fatalf("fetching catalog: %v", err)
	}
	ext, _ := cat.FindExtension("graphing")
	rel, _ := m.LatestCompatible(ext)

	task, err := m.InstallOrUpdate(ctx, manager.InstallRequest{Extension: ext.Name, Release: rel})
	if err != nil {
		t.Fatalf("starting install: %v", err)
	}
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	// A fresh store over the same snapshot file sees the installation.
	reloaded, err := state.Load(filepath.Join(env.Home, "installed.yaml"), zerolog.Nop())
	if err != nil {
		t.Fatalf("reloading store: %v", err)
	}
	rec, ok := reloaded.Entry("graphing").Get()
	if !ok || rec.Version != "1.0.0" {
		t.Errorf("reloaded record = %+v, want installed 1.0.0", rec)
	}
}

// TestUntrustedCatalogRejected serves a catalog whose main artifact lives on a
// foreign host and expects validation to refuse it outright.
func TestUntrustedCatalogRejected(t *testing.T) {
	env := setupTestEnv(t, "1.5.0",
		func(baseURL string) catalogSpec {
			return catalogSpec{
				Name:        "Hostile",
				Description: "Artifacts on an unapproved host",
				Extensions: []extensionSpec{{
					Name: "graphing",
					Releases: []releaseSpec{{
						Name:     "1.0.0",
						MainURL:  "https://evil.example.org/main.jar",
						Versions: map[string]string{"min": "1.0.0"},
					}},
				}},
			}
		},
		nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := env.Manager.Fetcher().Fetch(ctx, env.CatalogURI())
	var verr *catalog.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *catalog.ValidationError", err)
	}
	if verr.Field != "mainUrl" {
		t.Errorf("Field = %q, want mainUrl", verr.Field)
	}
}
