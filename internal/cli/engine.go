package cli

import (
	"fmt"

	"github.com/addonkit/addonkit/internal/catalog"
	"github.com/addonkit/addonkit/internal/config"
	"github.com/addonkit/addonkit/internal/manager"
	"github.com/addonkit/addonkit/internal/registry"
	"github.com/addonkit/addonkit/internal/state"
)

// newManager wires the engine together from the current configuration: one
// registry, one installed-state store, one fetcher, one manager instance.
func newManager() (*manager.Manager, error) {
	log := newLogger()

	reg, err := registry.Load(config.SourcesPath(), log)
	if err != nil {
		return nil, fmt.Errorf("loading catalog sources: %w", err)
	}

	store, err := state.Load(config.InstalledPath(), log)
	if err != nil {
		return nil, fmt.Errorf("loading installed state: %w", err)
	}

	fetcher := catalog.NewFetcher(hostPolicy(), log)

	return manager.New(manager.Options{
		Store:         store,
		Registry:      reg,
		Fetcher:       fetcher,
		ExtensionsDir: config.ExtensionsRoot,
		HostVersion:   config.HostVersion,
		Logger:        log,
	}), nil
}

func hostPolicy() catalog.HostPolicy {
	return catalog.HostPolicy{
		SourceHost:   config.SourceHost(),
		MirrorHost:   config.MirrorHost(),
		RegistryHost: config.RegistryHost(),
	}
}
