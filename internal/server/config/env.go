package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// parseEnv overlays VIDTUBE_* environment variables. Variables that are not
// set leave the current value untouched.
func parseEnv(config *Config) error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
