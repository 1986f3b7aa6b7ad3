package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Address() != "0.0.0.0:8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
	if cfg.Database.URL == "" {
		t.Fatal("database URL not derived from parts")
	}
	if !cfg.Migrations.Enabled {
		t.Fatal("migrations disabled by default")
	}
	if cfg.JWT.SessionTTL != 24*time.Hour {
		t.Fatalf("session TTL = %v", cfg.JWT.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/stories?sslmode=disable")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("AUDIT_MAX_PAYLOAD_BYTES", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != "9090" {
		t.Fatalf("port = %q", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/stories?sslmode=disable" {
		t.Fatalf("database URL = %q", cfg.Database.URL)
	}
	// Bare integers are read as seconds.
	if cfg.Context.RequestTimeout != 30*time.Second {
		t.Fatalf("request timeout = %v", cfg.Context.RequestTimeout)
	}
	if cfg.Audit.MaxPayloadBytes != 1024 {
		t.Fatalf("audit payload cap = %d", cfg.Audit.MaxPayloadBytes)
	}
}

func TestDurationParsing(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "2m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Minute {
		t.Fatalf("read timeout = %v", cfg.HTTP.ReadTimeout)
	}
}
