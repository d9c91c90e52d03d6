//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/addonkit/addonkit/internal/catalog"
	"github.com/addonkit/addonkit/internal/manager"
	"github.com/addonkit/addonkit/internal/registry"
	"github.com/addonkit/addonkit/internal/state"
)

// testEnv holds the isolated directories and the synthetic catalog server one
// end-to-end scenario runs against.
type testEnv struct {
	Home    string
	ExtDir  string
	Server  *httptest.Server
	Policy  catalog.HostPolicy
	Manager *manager.Manager
}

// catalogSpec is the wire shape served by the synthetic catalog endpoint.
type catalogSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Extensions  []extensionSpec `json:"extensions"`
}

type extensionSpec struct {
	Name     string        `json:"name"`
	Author   string        `json:"author,omitempty"`
	Starred  bool          `json:"starred,omitempty"`
	Releases []releaseSpec `json:"releases"`
}

type releaseSpec struct {
	Name                   string            `json:"name"`
	MainURL                string            `json:"mainUrl"`
	RequiredDependencyURLs []string          `json:"requiredDependencyUrls,omitempty"`
	OptionalDependencyURLs []string          `json:"optionalDependencyUrls,omitempty"`
	Versions               map[string]string `json:"versions"`
}

// setupTestEnv starts an HTTP server hosting both the catalog document at
// /catalog.json and every artifact in artifacts, then wires a full engine
// against it: registry, state store, fetcher, and manager, all rooted in temp
// directories.
func setupTestEnv(t *testing.T, hostVersion string, buildCatalog func(baseURL string) catalogSpec, artifacts map[string]string) *testEnv {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	env := &testEnv{Home: t.TempDir()}
	env.ExtDir = filepath.Join(env.Home, "extensions")

	env.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/catalog.json" {
			spec := buildCatalog(env.Server.URL)
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(spec); err != nil {
				t.Errorf("encoding catalog: %v", err)
			}
			return
		}
		body, ok := artifacts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(env.Server.Close)

	parsed, err := url.Parse(env.Server.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	env.Policy = catalog.HostPolicy{SourceHost: parsed.Hostname()}

	store, err := state.Load(filepath.Join(env.Home, "installed.yaml"), zerolog.Nop())
	if err != nil {
		t.Fatalf("loading state store: %v", err)
	}
	reg, err := registry.Load(filepath.Join(env.Home, "sources.yaml"), zerolog.Nop())
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}

	env.Manager = manager.New(manager.Options{
		Store:         store,
		Registry:      reg,
		Fetcher:       catalog.NewFetcher(env.Policy, zerolog.Nop()),
		ExtensionsDir: func() string { return env.ExtDir },
		HostVersion:   func() string { return hostVersion },
		Logger:        zerolog.Nop(),
	})
	return env
}

// CatalogURI returns the URI the registry should point at.
func (e *testEnv) CatalogURI() string {
	return e.Server.URL + "/catalog.json"
}

// singleExtensionCatalog describes one extension with one release whose
// artifact paths live on the given base URL.
func singleExtensionCatalog(extName, relName, min, max string, required, optional []string) func(string) catalogSpec {
	return func(baseURL string) catalogSpec {
		abs := func(paths []string) []string {
			var out []string
			for _, p := range paths {
				out = append(out, baseURL+p)
			}
			return out
		}
		versions := map[string]string{"min": min}
		if max != "" {
			versions["max"] = max
		}
		return catalogSpec{
			Name:        "Integration Catalog",
			Description: "Synthetic catalog for end-to-end tests",
			Extensions: []extensionSpec{{
				Name:   extName,
				Author: "tester",
				Releases: []releaseSpec{{
					Name:                   relName,
					MainURL:                fmt.Sprintf("%s/%s/%s/main.jar", baseURL, extName, relName),
					RequiredDependencyURLs: abs(required),
					OptionalDependencyURLs: abs(optional),
					Versions:               versions,
				}},
			}},
		}
	}
}
