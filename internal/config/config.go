package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration read from the environment.
type Server struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Rate model service; empty holds rates constant in projections.
	ModelServiceURL string        `env:"MODEL_SERVICE_URL"`
	ModelTimeout    time.Duration `env:"MODEL_TIMEOUT" envDefault:"2s"`
	ModelCacheSize  int           `env:"MODEL_CACHE_SIZE" envDefault:"1024"`

	// PresetDB wins over PresetFile; with neither the bundled presets are used.
	PresetFile string `env:"PRESET_FILE"`
	PresetDB   string `env:"PRESET_DB"`

	RedisURL   string        `env:"REDIS_URL"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	ReferenceYear int    `env:"REFERENCE_YEAR" envDefault:"2025"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (s Server) Addr() string {
	return ":" + s.Port
}
