package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected development env, got %s", cfg.Env)
	}
	if cfg.Provider.BaseURL == "" {
		t.Error("provider base URL must have a default")
	}
	if cfg.Provider.FetchTimeout != 15*time.Second {
		t.Errorf("expected 15s fetch timeout, got %v", cfg.Provider.FetchTimeout)
	}
	if cfg.Provider.RetryLimit != 2 {
		t.Errorf("expected retry limit 2, got %d", cfg.Provider.RetryLimit)
	}
	if cfg.Redis.Enabled {
		t.Error("redis must default to disabled")
	}
	if cfg.Scheduler.Enabled {
		t.Error("scheduler must default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("PROVIDER_RETRY_LIMIT", "5")
	t.Setenv("PROVIDER_FETCH_TIMEOUT", "3s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected production, got %s", cfg.Env)
	}
	if cfg.Provider.RetryLimit != 5 {
		t.Errorf("expected retry limit 5, got %d", cfg.Provider.RetryLimit)
	}
	if cfg.Provider.FetchTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Provider.FetchTimeout)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.LogLevel)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "qa")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown ENV")
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("PROVIDER_RETRY_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.RetryLimit != 2 {
		t.Errorf("expected default retry limit on parse failure, got %d", cfg.Provider.RetryLimit)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("PROVIDER_FETCH_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.FetchTimeout != 15*time.Second {
		t.Errorf("expected default timeout on parse failure, got %v", cfg.Provider.FetchTimeout)
	}
}
