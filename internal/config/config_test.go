package config

import (
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "DB_PATH", "STORE", "LOG_LEVEL", "JWT_SECRET", "JWT_EXPIRES_DAYS", "COOKIE_NAME",
	"CLIENT_ORIGIN", "NODE_ENV", "STARTING_BALANCE", "PROBE_TIMEOUT", "PROBE_CONCURRENCY",
	"REMOTE_POOLS", "POOLS_DIR", "PLAYER_IDLE_TTL",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "5175" || cfg.Store != "sqlite" || cfg.DBPath != "./data/app.db" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.StartingBalance != 50 || cfg.JWTExpiresDays != 14 || cfg.PlayerIdleTTL != 30*time.Minute {
		t.Errorf("StartingBalance = %d, JWTExpiresDays = %d, PlayerIdleTTL = %v",
			cfg.StartingBalance, cfg.JWTExpiresDays, cfg.PlayerIdleTTL)
	}
	if cfg.ProbeTimeout != 5*time.Second || cfg.ProbeConcurrency != 8 || cfg.RemotePools {
		t.Errorf("probe settings = %v, %d, %v", cfg.ProbeTimeout, cfg.ProbeConcurrency, cfg.RemotePools)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "Memory")
	t.Setenv("STARTING_BALANCE", "100")
	t.Setenv("PROBE_TIMEOUT", "3")
	t.Setenv("REMOTE_POOLS", "yes")
	t.Setenv("POOLS_DIR", "/srv/pools")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store != "memory" || cfg.StartingBalance != 100 || !cfg.RemotePools || cfg.PoolsDir != "/srv/pools" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.ProbeTimeout)
	}

	t.Setenv("PROBE_TIMEOUT", "750ms")
	if cfg, _ := Load(); cfg.ProbeTimeout != 750*time.Millisecond {
		t.Errorf("ProbeTimeout = %v, want 750ms", cfg.ProbeTimeout)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"STORE": "redis"}},
		{name: "negative balance", env: map[string]string{"STARTING_BALANCE": "-5"}},
		{name: "zero concurrency", env: map[string]string{"PROBE_CONCURRENCY": "0"}},
		{name: "zero expiry", env: map[string]string{"JWT_EXPIRES_DAYS": "0"}},
		{name: "idle ttl too short", env: map[string]string{"PLAYER_IDLE_TTL": "5s"}},
		{name: "dev secret in production", env: map[string]string{"NODE_ENV": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestProductionWithSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Production {
		t.Error("Production = false, want true")
	}
}
