package cli

import (
	"database/sql"
	"os"

	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/entitlement"
	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/storage"
	"github.com/eventlane/eventlane/pkg/subscriptions"
	"github.com/eventlane/eventlane/pkg/usage"
)

// defaultDatabaseURL is the -db-url default, taken from DATABASE_URL when set
func defaultDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return "postgres://localhost/eventlane?sslmode=disable"
}

// openDatabase connects with the default pool settings
func openDatabase(url string) (*sql.DB, error) {
	return storage.Open(storage.DefaultConfig(url))
}

// newEngine wires a resolution engine over an open database. Command runs
// are one-shot, so there is no cache tier and no metrics registry.
func newEngine(db *sql.DB) *entitlement.Engine {
	logger := observability.NewLogger(observability.WarnLevel, os.Stderr)
	return entitlement.NewEngine(
		subscriptions.NewPostgresStore(db),
		plans.NewPostgresCatalog(db),
		directory.NewPostgresDirectory(db),
		usage.NewPostgresCounters(db),
		logger,
		nil,
	)
}
