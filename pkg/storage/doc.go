// Package storage manages the PostgreSQL connection pool and the
// versioned schema migrations for the entitlement tables.
//
// # Overview
//
// Open establishes a pooled connection and verifies it with a ping.
// RunMigrations applies any pending schema versions, each inside its own
// transaction, tracked in the eventlane_migrations table so restarts and
// repeated invocations are safe. NewRedisClient connects the optional
// Redis tier used by the plan cache.
//
// Usage:
//
//	db, err := storage.Open(storage.Config{URL: cfg.DatabaseURL})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if err := storage.RunMigrations(ctx, db); err != nil {
//		return err
//	}
//
// # Related Packages
//
//   - pkg/plans: plan catalog persisted in the plans table
//   - pkg/subscriptions: subscription store persisted in the subscriptions table
//   - pkg/directory, pkg/usage: read-only consumers of the account and
//     resource tables
package storage
