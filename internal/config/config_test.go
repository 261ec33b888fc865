package config

import (
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.StorageDriver != "sqlite" || cfg.AutoReplyDelay != 2*time.Second || cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Environment != EnvDevelopment || cfg.IsProduction() || cfg.IsTesting() {
		t.Fatalf("unexpected environment: %s", cfg.Environment)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("MAISON_STORAGE_DRIVER", "Pebble")
	t.Setenv("MAISON_AUTO_REPLY_DELAY", "250ms")
	t.Setenv("MAISON_AUTH_BASE_URL", "https://api.example.fr/api/")
	t.Setenv("MAISON_ENVIRONMENT", "production")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.StorageDriver != "pebble" {
		t.Fatalf("driver override failed, got %s", cfg.StorageDriver)
	}
	if cfg.AutoReplyDelay != 250*time.Millisecond {
		t.Fatalf("delay override failed, got %s", cfg.AutoReplyDelay)
	}
	if cfg.AuthBaseURL != "https://api.example.fr/api" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.AuthBaseURL)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production environment")
	}
}

func TestConfigLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("MAISON_STORAGE_DRIVER", "cassandra")
	if _, err := New(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestConfigLoad_RejectsBadDuration(t *testing.T) {
	t.Setenv("MAISON_HTTP_TIMEOUT", "soon")
	if _, err := New(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolveDefaults_Validation(t *testing.T) {
	cfg := NewForTesting()
	cfg.AutoReplyDelay = -time.Second
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected negative delay to be rejected")
	}

	cfg = NewForTesting()
	cfg.HTTPTimeout = 0
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected zero timeout to be rejected")
	}

	cfg = NewForTesting()
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("testing config invalid: %v", err)
	}
	if !cfg.IsTesting() || cfg.StorageDriver != "memory" {
		t.Fatalf("unexpected testing config: %+v", cfg)
	}
}
