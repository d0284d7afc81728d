package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Ops HTTP server configuration (reporter daemon)
	Server ServerConfig

	// Postgres connection configuration
	Database storage.Config

	// Plan catalog cache configuration
	Cache CacheConfig

	// Declarative plan seeding configuration
	Seed SeedConfig

	// Usage reporter configuration
	Reporter ReporterConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds the ops HTTP server configuration. The reporter daemon
// serves health probes and /metrics on this endpoint.
type ServerConfig struct {
	Host            string
	OpsPort         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// CacheConfig holds plan catalog cache settings. An empty Redis URL disables
// the shared tier; the in-process tier is always on.
type CacheConfig struct {
	RedisURL string
}

// SeedConfig holds declarative plan seeding settings
type SeedConfig struct {
	Path  string
	Watch bool
}

// ReporterConfig holds usage reporter settings
type ReporterConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 1m"
	Schedule string

	// Concurrency bounds the per-conference collection fan-out
	Concurrency int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		Seed:          loadSeedConfig(),
		Reporter:      loadReporterConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads the ops server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("EVENTLANE_HOST", "0.0.0.0"),
		OpsPort:         getEnv("EVENTLANE_OPS_PORT", "9090"),
		ReadTimeout:     getEnvDuration("EVENTLANE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("EVENTLANE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("EVENTLANE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("EVENTLANE_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadDatabaseConfig loads the Postgres configuration from environment
func loadDatabaseConfig() storage.Config {
	cfg := storage.DefaultConfig(getEnv("DATABASE_URL", ""))

	if maxConns := getEnvInt("EVENTLANE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxOpenConns = maxConns
	}
	if idleConns := getEnvInt("EVENTLANE_POSTGRES_IDLE_CONNS", 0); idleConns > 0 {
		cfg.MaxIdleConns = idleConns
	}
	if lifetime := getEnvDuration("EVENTLANE_POSTGRES_CONN_LIFETIME", 0); lifetime > 0 {
		cfg.ConnMaxLifetime = lifetime
	}
	if idleTime := getEnvDuration("EVENTLANE_POSTGRES_CONN_IDLE_TIME", 0); idleTime > 0 {
		cfg.ConnMaxIdleTime = idleTime
	}
	if timeout := getEnvDuration("EVENTLANE_POSTGRES_CONNECT_TIMEOUT", 0); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	return cfg
}

// loadCacheConfig loads the cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		RedisURL: getEnv("REDIS_URL", ""),
	}
}

// loadSeedConfig loads the plan seeding configuration from environment
func loadSeedConfig() SeedConfig {
	return SeedConfig{
		Path:  getEnv("EVENTLANE_SEED_PATH", ""),
		Watch: getEnvBool("EVENTLANE_SEED_WATCH", false),
	}
}

// loadReporterConfig loads the usage reporter configuration from environment
func loadReporterConfig() ReporterConfig {
	return ReporterConfig{
		Schedule:    getEnv("EVENTLANE_REPORT_SCHEDULE", "@every 1m"),
		Concurrency: getEnvInt("EVENTLANE_REPORT_CONCURRENCY", 4),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("EVENTLANE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("EVENTLANE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("EVENTLANE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("EVENTLANE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("EVENTLANE_OTEL_SERVICE_NAME", "eventlane"),
		OTelServiceVersion: getEnv("EVENTLANE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("EVENTLANE_OTEL_INSECURE", true),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.OpsPort == "" {
		return fmt.Errorf("ops port is required")
	}

	// Validate database config
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	// Validate seed config
	if c.Seed.Watch && c.Seed.Path == "" {
		return fmt.Errorf("seed path is required when seed watching is enabled")
	}

	// Validate reporter config
	if c.Reporter.Schedule == "" {
		return fmt.Errorf("report schedule is required")
	}
	if c.Reporter.Concurrency < 1 {
		return fmt.Errorf("report concurrency must be at least 1")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
