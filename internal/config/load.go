package config

import (
	"github.com/stevenberge/tikv/internal/infra/confloader"
)

// Load builds the configuration from defaults, the optional YAML file at
// path, KVSUM_ environment variables and overrides, in that order, and
// verifies the result.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
