package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Synaptiq admin plane.
type Config struct {
	Port      int
	Version   string
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Console   ConsoleConfig
	Sessions  SessionConfig
}

type DatabaseConfig struct {
	// URL empty means the in-memory store with a JSON snapshot is used.
	URL            string
	MaxConnections int
	DataDir        string
}

type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
}

type ConsoleConfig struct {
	SearchDebounce time.Duration
}

type SessionConfig struct {
	// TTL after which an untouched draft edit session is discarded.
	TTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	version := envStr("SYNAPTIQ_VERSION", "0.4.0")
	return &Config{
		Port:    envInt("SYNAPTIQ_PORT", 8080),
		Version: version,
		Database: DatabaseConfig{
			URL:            envStr("DATABASE_URL", ""),
			MaxConnections: envInt("DATABASE_MAX_CONNECTIONS", 25),
			DataDir:        envStr("SYNAPTIQ_DATA_DIR", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:        envBool("OTEL_ENABLED", true),
			OTLPEndpoint:   envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:    envStr("OTEL_SERVICE_NAME", "synaptiq-admin-plane"),
			ServiceVersion: version,
		},
		Console: ConsoleConfig{
			SearchDebounce: envDuration("SYNAPTIQ_SEARCH_DEBOUNCE", 400*time.Millisecond),
		},
		Sessions: SessionConfig{
			TTL: envDuration("SYNAPTIQ_SESSION_TTL", 30*time.Minute),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
