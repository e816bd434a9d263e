package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: faceid
  user: faceid
  password: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Matching.DistanceThreshold != 0.5 {
		t.Errorf("distance threshold = %v, want 0.5", cfg.Matching.DistanceThreshold)
	}
	if cfg.Matching.LivenessThreshold != 0.6 {
		t.Errorf("liveness threshold = %v, want 0.6", cfg.Matching.LivenessThreshold)
	}
	if cfg.Matching.DuplicateThreshold != 0.4 {
		t.Errorf("duplicate threshold = %v, want 0.4", cfg.Matching.DuplicateThreshold)
	}
	if cfg.Matching.Dimensions != 128 {
		t.Errorf("dimensions = %d, want 128", cfg.Matching.Dimensions)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
matching:
  distance_threshold: 0.35
  dimensions: 512
auth:
  jwt_secret: topsecret
  token_ttl: 1h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Matching.DistanceThreshold != 0.35 {
		t.Errorf("distance threshold = %v, want 0.35", cfg.Matching.DistanceThreshold)
	}
	if cfg.Matching.Dimensions != 512 {
		t.Errorf("dimensions = %d, want 512", cfg.Matching.Dimensions)
	}
	if cfg.Auth.JWTSecret != "topsecret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("token ttl = %v, want 1h", cfg.Auth.TokenTTL)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
`)

	t.Setenv("FACEID_SERVER_PORT", "7070")
	t.Setenv("FACEID_DB_HOST", "override.internal")
	t.Setenv("FACEID_DB_PASSWORD", "env-secret")
	t.Setenv("FACEID_JWT_SECRET", "env-jwt")
	t.Setenv("FACEID_DISTANCE_THRESHOLD", "0.45")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Host != "override.internal" {
		t.Errorf("db host = %q, want env override", cfg.Database.Host)
	}
	if cfg.Database.Password != "env-secret" {
		t.Errorf("db password = %q, want env override", cfg.Database.Password)
	}
	if cfg.Auth.JWTSecret != "env-jwt" {
		t.Errorf("jwt secret = %q, want env override", cfg.Auth.JWTSecret)
	}
	if cfg.Matching.DistanceThreshold != 0.45 {
		t.Errorf("distance threshold = %v, want env override 0.45", cfg.Matching.DistanceThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, Name: "n", User: "u", Password: "p"}
	want := "postgres://u:p@h:5433/n?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
