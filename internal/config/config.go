// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"

	SessionStoreSQL   = "sql"
	SessionStoreRedis = "redis"
)

type Config struct {
	Port string `env:"PORT,default=4000"`

	DatabaseDriver string        `env:"DATABASE_DRIVER,default=pgx"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	DBMaxOpen      int           `env:"DB_MAX_OPEN,default=25"`
	DBMaxIdle      int           `env:"DB_MAX_IDLE,default=25"`
	DBMaxLifetime  time.Duration `env:"DB_MAX_LIFETIME,default=5m"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE,default=true"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=24h"`
	SessionStore  string        `env:"SESSION_STORE,default=sql"`
	SessionPurge  string        `env:"SESSION_PURGE_SCHEDULE,default=@every 1h"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	CookieSecure  bool          `env:"COOKIE_SECURE,default=false"`
	LoginRate     float64       `env:"LOGIN_RATE,default=5"`
	LoginBurst    int           `env:"LOGIN_BURST,default=10"`
	TrustProxy    bool          `env:"TRUST_PROXY,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads an optional .env file and decodes the environment into a Config.
// The bool result reports whether a .env file was found.
func Load(files ...string) (*Config, bool, error) {
	foundEnv := godotenv.Load(files...) == nil

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, foundEnv, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, foundEnv, err
	}
	return &cfg, foundEnv, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}

	if len(c.SessionSecret) < 16 {
		return errors.New("config: SESSION_SECRET must be at least 16 bytes")
	}

	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}

	switch c.SessionStore {
	case SessionStoreSQL:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unsupported SESSION_STORE %q", c.SessionStore)
	}

	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("config: LOGIN_RATE and LOGIN_BURST must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
