package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ResetCutoffLayout is the layout of RESET_CUTOFF.
const ResetCutoffLayout = "2006-01-02 15:04:05.000"

// Config stores the application configuration.
type Config struct {
	// HTTP
	Port int `env:"SERVER_APP_PORT" envDefault:"3000"`

	// MySQL
	DBHost         string `env:"ISUCON_DB_HOST" envDefault:"127.0.0.1"`
	DBPort         int    `env:"ISUCON_DB_PORT" envDefault:"3306"`
	DBUser         string `env:"ISUCON_DB_USER" envDefault:"isucon"`
	DBPassword     string `env:"ISUCON_DB_PASSWORD" envDefault:"isucon"`
	DBName         string `env:"ISUCON_DB_NAME" envDefault:"isucon_listen80"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"127.0.0.1"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Session
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"powawa"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// AdminAccounts may toggle the ban flag of any user.
	AdminAccounts []string `env:"ADMIN_ACCOUNTS" envDefault:"adminuser" envSeparator:","`

	// ResetCutoff: rows created after it are removed by /initialize.
	ResetCutoff string `env:"RESET_CUTOFF" envDefault:"2022-05-13 09:00:00.000"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"false"`
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() (*Config, error) {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.ResetCutoffTime(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResetCutoffTime parses ResetCutoff in the local time zone, matching how
// the database stores created_at.
func (c *Config) ResetCutoffTime() (time.Time, error) {
	t, err := time.ParseInLocation(ResetCutoffLayout, c.ResetCutoff, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RESET_CUTOFF %q: %w", c.ResetCutoff, err)
	}
	return t, nil
}

// IsAdmin reports whether account is on the admin allowlist.
func (c *Config) IsAdmin(account string) bool {
	for _, a := range c.AdminAccounts {
		if a == account {
			return true
		}
	}
	return false
}
