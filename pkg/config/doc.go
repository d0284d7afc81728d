// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. Both binaries (the admin CLI and the
// reporter daemon) share it.
//
// # Configuration Structure
//
// Ops server settings (reporter daemon):
//
//	EVENTLANE_HOST="0.0.0.0"
//	EVENTLANE_OPS_PORT="9090"
//	EVENTLANE_READ_TIMEOUT="15s"
//	EVENTLANE_WRITE_TIMEOUT="15s"
//	EVENTLANE_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	DATABASE_URL="postgres://localhost/eventlane"
//	EVENTLANE_POSTGRES_MAX_CONNS="25"
//	EVENTLANE_POSTGRES_IDLE_CONNS="5"
//	EVENTLANE_POSTGRES_CONN_LIFETIME="5m"
//
// Cache settings:
//
//	REDIS_URL="redis://localhost:6379"  # empty disables the shared tier
//
// Plan seeding settings:
//
//	EVENTLANE_SEED_PATH="/etc/eventlane/plans.yaml"
//	EVENTLANE_SEED_WATCH="false"
//
// Reporter settings:
//
//	EVENTLANE_REPORT_SCHEDULE="@every 1m"
//	EVENTLANE_REPORT_CONCURRENCY="4"
//
// Observability settings:
//
//	EVENTLANE_LOG_LEVEL="info"  # debug, info, warn, error
//	EVENTLANE_METRICS_ENABLED="true"
//	EVENTLANE_OTEL_ENABLED="false"
//	EVENTLANE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Ops server: %s:%s\n", cfg.Server.Host, cfg.Server.OpsPort)
//	fmt.Printf("Database: %s\n", cfg.Database.URL)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses database configuration
//   - pkg/observability: Uses observability configuration
//   - pkg/reporter: Uses reporter configuration
package config
