package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the daemon's runtime configuration, parsed from the environment.
// Estimator parameters live in a separate YAML file (ConfigPath) so tests and
// deployments can tune them without rebuilding.
type Config struct {
	// Addr is the listen address for the HTTP API.
	Addr string `env:"ZONECARBON_ADDR" envDefault:":8000"`

	// LogLevel is a zerolog level name (trace..panic).
	LogLevel string `env:"ZONECARBON_LOG_LEVEL" envDefault:"info"`

	// CORSAllowedOrigins is a comma-separated origin allowlist; empty
	// disables CORS handling.
	CORSAllowedOrigins []string `env:"ZONECARBON_CORS_ALLOWED_ORIGINS" envSeparator:","`

	// GridProviderURL points at a live grid-intensity feed. Empty selects the
	// bundled static factor table.
	GridProviderURL string `env:"ZONECARBON_GRID_PROVIDER_URL"`

	// GridTimeout bounds one grid-intensity fetch.
	GridTimeout time.Duration `env:"ZONECARBON_GRID_TIMEOUT" envDefault:"5s"`

	// ConfigPath is an optional YAML estimator configuration file.
	ConfigPath string `env:"ZONECARBON_CONFIG"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"ZONECARBON_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func parseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
