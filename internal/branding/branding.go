// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package and rebuild; Go's //go:embed
// bakes the values into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	SourceHost   string `yaml:"source_host"`
	MirrorHost   string `yaml:"mirror_host"`
	RegistryHost string `yaml:"registry_host"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "addonkit",
			DisplayName:  "AddonKit",
			Description:  "Catalog-driven extension manager for host applications",
			HomeDir:      ".addonkit",
			EnvPrefix:    "ADDONKIT",
			GoModule:     "github.com/addonkit/addonkit",
			SourceHost:   "github.com",
			MirrorHost:   "objects.githubusercontent.com",
			RegistryHost: "repo1.maven.org",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "addonkit").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "AddonKit").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".addonkit").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "ADDONKIT").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by rebrand tooling, not at runtime.
func GoModule() string { load(); return defaults.GoModule }

// SourceHost returns the designated source-hosting domain for main artifacts.
func SourceHost() string { load(); return defaults.SourceHost }

// MirrorHost returns the designated artifact-mirror domain.
func MirrorHost() string { load(); return defaults.MirrorHost }

// RegistryHost returns the designated public-artifact-registry domain.
func RegistryHost() string { load(); return defaults.RegistryHost }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "ADDONKIT_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
