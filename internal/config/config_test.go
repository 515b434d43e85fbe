package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Auth.TokenTTL.Std() != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load(missing) = %v, want nil", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "supersecret")

	path := filepath.Join(t.TempDir(), "userapi.yaml")
	data := `
server:
  port: 9090
  host: 127.0.0.1
database:
  driver: postgres
  dsn: postgres://localhost/userapi
auth:
  jwt_secret: ${TEST_JWT_SECRET}
  token_ttl: 2h
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Auth.JWTSecret != "supersecret" {
		t.Errorf("jwt_secret = %q, want expanded env value", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL.Std() != 2*time.Hour {
		t.Errorf("token_ttl = %v, want 2h", cfg.Auth.TokenTTL)
	}
	// Unset sections keep their defaults.
	if cfg.Server.ShutdownTimeout.Std() != 30*time.Second {
		t.Errorf("shutdown_timeout = %v, want default 30s", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load(malformed) = nil, want error")
	}
}
