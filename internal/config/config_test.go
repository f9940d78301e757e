package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets keys for the duration of the test and restores them after.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
	clearEnv(t, "DATABASE_URL", "JWT_SECRET")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected both keys in error, got %v", err)
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "pq")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("RESUME_MAX_BYTES", "1024")
	clearEnv(t, "HTTP_PORT", "SMTP_HOST", "REFRESH_TOKEN_TTL", "PASSWORD_RESET_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.DBDriver != "postgres" || cfg.DBAutoMigrate {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 720*time.Hour {
		t.Fatalf("unexpected ttls %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.ResumeMaxBytes != 1024 || cfg.MaxBodyBytes != 12<<20 {
		t.Fatalf("unexpected sizes %d %d", cfg.ResumeMaxBytes, cfg.MaxBodyBytes)
	}
	if cfg.PasswordResetURL != "http://127.0.0.1:8000/auth/reset-password" {
		t.Fatalf("unexpected reset url %q", cfg.PasswordResetURL)
	}
	if cfg.SMTPEnabled() {
		t.Fatal("expected smtp disabled without host")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t, "DATABASE_URL", "JWT_SECRET", "SMTP_HOST")
	t.Setenv("HTTP_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.env")
	content := "DATABASE_URL=postgres://file/jobs\nJWT_SECRET=from-file\nHTTP_PORT=7070\nSMTP_HOST=smtp.example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.PostgresDSN != "postgres://file/jobs" || cfg.JWTSecret != "from-file" {
		t.Fatalf("expected values from file, got %+v", cfg)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected process env to win, got %q", cfg.HTTPPort)
	}
	if !cfg.SMTPEnabled() {
		t.Fatal("expected smtp enabled")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
