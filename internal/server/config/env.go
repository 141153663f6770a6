package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays variables that are set; unset variables keep the
// values already loaded.
func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
