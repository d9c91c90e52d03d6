package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/addonkit/addonkit/internal/branding"
)

func TestPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	wantDir := filepath.Join(home, branding.HomeDir())
	if got := Dir(); got != wantDir {
		t.Errorf("Dir() = %q, want %q", got, wantDir)
	}
	if got := SourcesPath(); got != filepath.Join(wantDir, SourcesFile) {
		t.Errorf("SourcesPath() = %q", got)
	}
	if got := InstalledPath(); got != filepath.Join(wantDir, InstalledFile) {
		t.Errorf("InstalledPath() = %q", got)
	}
	if got := FilePath(); !strings.HasSuffix(got, "config.yaml") {
		t.Errorf("FilePath() = %q, want a config.yaml path", got)
	}
}

func TestExtensionsRootResolution(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(branding.EnvVar("EXTENSIONS"), "")

	want := filepath.Join(home, branding.HomeDir(), ExtensionsDir)
	if got := ExtensionsRoot(); got != want {
		t.Errorf("default ExtensionsRoot() = %q, want %q", got, want)
	}

	// The env override is read live on every call.
	override := filepath.Join(home, "elsewhere")
	t.Setenv(branding.EnvVar("EXTENSIONS"), override)
	if got := ExtensionsRoot(); got != override {
		t.Errorf("ExtensionsRoot() with env override = %q, want %q", got, override)
	}
}

func TestHostVersionFromEnv(t *testing.T) {
	t.Setenv(branding.EnvVar("HOST_VERSION"), "2.4.0")
	if got := HostVersion(); got != "2.4.0" {
		t.Errorf("HostVersion() = %q, want 2.4.0", got)
	}
}

func TestHostDefaultsFallBackToBranding(t *testing.T) {
	if got := SourceHost(); got == "" {
		t.Error("SourceHost() is empty without configuration")
	}
	if got := MirrorHost(); got == "" {
		t.Error("MirrorHost() is empty without configuration")
	}
	if got := RegistryHost(); got == "" {
		t.Error("RegistryHost() is empty without configuration")
	}
}
