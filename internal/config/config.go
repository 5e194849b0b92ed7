// internal/config/config.go
//
// Process configuration, read once from the environment at startup.
// A .env file (if present) is loaded by main before Load is called.
//
// Environment:
//   PORT=5175                     HTTP listen port
//   DB_PATH=./data/app.db         SQLite file (users are always stored there)
//   STORE=sqlite|memory           backend for ledgers and progress
//   LOG_LEVEL=info                zerolog level
//   JWT_SECRET, JWT_EXPIRES_DAYS  player tokens (HS256)
//   COOKIE_NAME=namequiz_token    auth cookie name
//   CLIENT_ORIGIN                 single CORS origin (credentials enabled)
//   NODE_ENV=production           Secure + SameSite=None cookies
//   STARTING_BALANCE=50           seed balance of every ledger
//   PLAYER_IDLE_TTL=30m           idle time before a player's cached state is dropped
//   PROBE_TIMEOUT=5s              per-item timeout of remote pool probes
//   PROBE_CONCURRENCY=8           concurrent probes per pool
//   REMOTE_POOLS=false            probe people/creatures images before play
//   POOLS_DIR                     override directory for pool JSON files

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSecret = "dev_secret_change_me"

type Config struct {
	Port     string
	DBPath   string
	Store    string
	LogLevel string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool

	StartingBalance int
	PlayerIdleTTL   time.Duration

	ProbeTimeout     time.Duration
	ProbeConcurrency int
	RemotePools      bool
	PoolsDir         string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "5175"),
		DBPath:   getEnv("DB_PATH", "./data/app.db"),
		Store:    strings.ToLower(getEnv("STORE", "sqlite")),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:      getEnv("JWT_SECRET", devSecret),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "namequiz_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",

		StartingBalance: getEnvInt("STARTING_BALANCE", 50),
		PlayerIdleTTL:   getEnvDuration("PLAYER_IDLE_TTL", 30*time.Minute),

		ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		ProbeConcurrency: getEnvInt("PROBE_CONCURRENCY", 8),
		RemotePools:      getEnvBool("REMOTE_POOLS", false),
		PoolsDir:         os.Getenv("POOLS_DIR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.Store != "sqlite" && c.Store != "memory" {
		return fmt.Errorf("STORE must be sqlite or memory, got %q", c.Store)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	if c.Production && c.JWTSecret == devSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTExpiresDays <= 0 {
		return errors.New("JWT_EXPIRES_DAYS must be > 0")
	}
	if c.StartingBalance < 0 {
		return errors.New("STARTING_BALANCE must be >= 0")
	}
	if c.PlayerIdleTTL < time.Minute {
		return errors.New("PLAYER_IDLE_TTL must be at least 1m")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("PROBE_TIMEOUT must be > 0")
	}
	if c.ProbeConcurrency <= 0 {
		return errors.New("PROBE_CONCURRENCY must be > 0")
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// getEnvDuration accepts Go durations ("750ms", "5s") or whole seconds ("5").
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
