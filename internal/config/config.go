package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	PostgresDSN      string
	DBDriver         string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnMaxIdle    time.Duration
	DBConnMaxLife    time.Duration
	DBAutoMigrate    bool
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	PasswordResetTTL time.Duration
	PasswordResetURL string
	RedisURL         string
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	ResumeDir        string
	ResumeMaxBytes   int64
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	MailFrom         string
	LogLevel         string
}

// Load reads the environment, seeding it from ENV_FILE (default .env) when
// that file exists. Variables already set in the process win over the file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		PostgresDSN:      getEnv("DATABASE_URL", ""),
		DBDriver:         driverName(getEnv("DB_DRIVER", "pgx")),
		DBMaxOpenConns:   getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:   getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxIdle:    getDuration("DB_CONN_MAX_IDLE", 5*time.Minute),
		DBConnMaxLife:    getDuration("DB_CONN_MAX_LIFE", 30*time.Minute),
		DBAutoMigrate:    getBool("DB_AUTO_MIGRATE", true),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		PasswordResetTTL: getDuration("PASSWORD_RESET_TTL", 24*time.Hour),
		PasswordResetURL: getEnv("PASSWORD_RESET_URL", "http://127.0.0.1:8000/auth/reset-password"),
		RedisURL:         getEnv("REDIS_URL", ""),
		RequestTimeout:   getDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxBodyBytes:     int64(getInt("MAX_BODY_BYTES", 12<<20)),
		ResumeDir:        getEnv("RESUME_DIR", "./media"),
		ResumeMaxBytes:   int64(getInt("RESUME_MAX_BYTES", 10<<20)),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		MailFrom:         getEnv("MAIL_FROM", "noreply@jobportal.local"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	missing := make([]string, 0, 2)
	if cfg.PostgresDSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.DBDriver != "pgx" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", cfg.DBDriver)
	}
	return cfg, nil
}

// SMTPEnabled reports whether outgoing mail goes to a real server.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func driverName(value string) string {
	value = strings.ToLower(value)
	if value == "pq" || value == "postgresql" {
		return "postgres"
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}
