// Package config provides viper-backed configuration for the engine.
//
// Values resolve in order: ADDONKIT_* environment variables, the config file
// (~/.addonkit/config.yaml), then branding defaults. Path-valued settings are
// live: callers read them at the moment of each operation, so relocating the
// extension directory takes effect without a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/addonkit/addonkit/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"

	// Config keys.
	KeyExtensionsDir = "extensions_dir"
	KeyHostVersion   = "host_version"
	KeySourceHost    = "source_host"
	KeyMirrorHost    = "mirror_host"
	KeyRegistryHost  = "registry_host"
)

// File names under the home directory.
const (
	SourcesFile   = "sources.yaml"
	InstalledFile = "installed.yaml"
	ExtensionsDir = "extensions"
)

// Permission constants.
const (
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
)

// Dir returns the path to the config directory (~/.addonkit/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.addonkit/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// SourcesPath returns the path to the persisted catalog-source registry.
func SourcesPath() string {
	return filepath.Join(Dir(), SourcesFile)
}

// InstalledPath returns the path to the installed-state snapshot file.
func InstalledPath() string {
	return filepath.Join(Dir(), InstalledFile)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, DirPermNormal); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ExtensionsRoot returns the current extension directory. The value is read
// on every call: ADDONKIT_EXTENSIONS env override first, then the config key,
// then ~/.addonkit/extensions.
func ExtensionsRoot() string {
	if v := os.Getenv(branding.EnvVar("EXTENSIONS")); v != "" {
		return v
	}
	if v := Get(KeyExtensionsDir); v != "" {
		return v
	}
	return filepath.Join(Dir(), ExtensionsDir)
}

// HostVersion returns the host application version used to filter releases
// by compatible version range.
func HostVersion() string {
	if v := os.Getenv(branding.EnvVar("HOST_VERSION")); v != "" {
		return v
	}
	return Get(KeyHostVersion)
}

// SourceHost returns the domain a release's main artifact must be hosted on.
func SourceHost() string {
	if v := Get(KeySourceHost); v != "" {
		return v
	}
	return branding.SourceHost()
}

// MirrorHost returns the trusted artifact-mirror domain.
func MirrorHost() string {
	if v := Get(KeyMirrorHost); v != "" {
		return v
	}
	return branding.MirrorHost()
}

// RegistryHost returns the trusted public-artifact-registry domain.
func RegistryHost() string {
	if v := Get(KeyRegistryHost); v != "" {
		return v
	}
	return branding.RegistryHost()
}
