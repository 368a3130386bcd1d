package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("JWT_SECRET=from-file\nKAFKA_BROKERS=k1:9092,k2:9092\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("KAFKA_BROKERS")
	t.Cleanup(func() { os.Unsetenv("KAFKA_BROKERS") })

	cfg, err := Load(context.Background(), envFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from env file, got %q", cfg.JWTSecret)
	}
	if cfg.StoreDriver != DriverMongo || cfg.CRM.Timeout != 15*time.Second || cfg.CRM.DebounceWindow != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Kafka.Enabled() || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestLoadClaimsMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.yaml")
	body := "openid: [sub]\nfrs:\n  - nmls\n  - region\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	mapping, err := LoadClaimsMapping(path)
	if err != nil {
		t.Fatalf("LoadClaimsMapping returned error: %v", err)
	}
	if got := mapping["frs"]; len(got) != 2 || got[1] != "region" {
		t.Fatalf("unexpected frs claims: %v", got)
	}
}
