package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// ServerConfig holds the reference service configuration loaded from
// environment variables.
type ServerConfig struct {
	Addr      string `env:"CIASSOC_ADDR" envDefault:":3528"`
	DBPath    string `env:"CIASSOC_DB" envDefault:"ciassoc.db"`
	AuthToken string `env:"CIASSOC_AUTH_TOKEN"`
	// SeedFile optionally names a YAML fixture of managed objects loaded at
	// startup.
	SeedFile string `env:"CIASSOC_SEED_FILE"`
	Logging  LoggingConfig
}

// LoggingConfig encapsulates runtime logging options.
type LoggingConfig struct {
	Level  string `env:"CIASSOC_LOG_LEVEL" envDefault:"info"`
	Format string `env:"CIASSOC_LOG_FORMAT" envDefault:"json"`
	Loki   LokiConfig
}

// LokiConfig configures optional Loki log shipping. Shipping is enabled when
// URL is set.
type LokiConfig struct {
	URL    string            `env:"CIASSOC_LOKI_URL"`
	Labels map[string]string `env:"CIASSOC_LOKI_LABELS"`
}

// Enabled reports whether logs should be shipped to Loki.
func (c LokiConfig) Enabled() bool { return c.URL != "" }

// Load reads the server configuration from the environment.
func Load() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
