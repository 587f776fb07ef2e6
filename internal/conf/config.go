package conf

import (
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/pkg/errors"
)

// Config is the process configuration, read once from the environment at
// startup (after an optional .env load).
type Config struct {
	// DatabaseURL selects the driver by scheme: postgres:// (or a keyword
	// DSN), mysql://, sqlite:// or a bare .db path.
	DatabaseURL string `env:"DATABASE_URL"`
	// APIKey is the shared secret expected in the X-API-Key header.
	APIKey string `env:"API_KEY"`

	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFile enables rotating file output alongside stderr when set.
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`

	// Pool knobs applied to the underlying sql.DB.
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment config")
	}
	return cfg, nil
}
