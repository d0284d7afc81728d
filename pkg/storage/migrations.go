package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create plans table",
			SQL: `
				CREATE TABLE IF NOT EXISTS plans (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					display_name VARCHAR(255) NOT NULL,
					price_cents BIGINT NOT NULL DEFAULT 0,
					limits JSONB NOT NULL DEFAULT '{}',
					features JSONB NOT NULL DEFAULT '{}',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_default BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_plans_is_active ON plans(is_active);
				CREATE UNIQUE INDEX idx_plans_single_default ON plans(is_default) WHERE is_default = TRUE;
			`,
		},
		{
			Version:     2,
			Description: "Create subscriptions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS subscriptions (
					id BIGSERIAL PRIMARY KEY,
					public_id UUID NOT NULL UNIQUE,
					user_id BIGINT,
					conference_id BIGINT,
					plan_id BIGINT NOT NULL REFERENCES plans(id),
					status VARCHAR(32) NOT NULL,
					starts_at TIMESTAMP NOT NULL,
					ends_at TIMESTAMP,
					trial_ends_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					CHECK ((user_id IS NULL) <> (conference_id IS NULL))
				);

				CREATE INDEX idx_subscriptions_user_id ON subscriptions(user_id) WHERE user_id IS NOT NULL;
				CREATE INDEX idx_subscriptions_conference_id ON subscriptions(conference_id) WHERE conference_id IS NOT NULL;
				CREATE INDEX idx_subscriptions_status ON subscriptions(status);
			`,
		},
		{
			Version:     3,
			Description: "Create accounts and conferences tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS accounts (
					id BIGSERIAL PRIMARY KEY,
					external_id VARCHAR(255) NOT NULL UNIQUE,
					display_name VARCHAR(255) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS conferences (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(512) NOT NULL DEFAULT '',
					created_by_external_id VARCHAR(255) NOT NULL,
					status VARCHAR(32) NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS conference_admins (
					id BIGSERIAL PRIMARY KEY,
					conference_id BIGINT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
					account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					position INT NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(conference_id, account_id)
				);

				CREATE INDEX idx_conferences_created_by ON conferences(created_by_external_id);
				CREATE INDEX idx_conference_admins_conference_id ON conference_admins(conference_id);
				CREATE INDEX idx_conference_admins_account_id ON conference_admins(account_id);
			`,
		},
		{
			Version:     4,
			Description: "Create participant, poll, question and meeting tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS participants (
					id BIGSERIAL PRIMARY KEY,
					conference_id BIGINT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
					account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					status VARCHAR(32) NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(conference_id, account_id)
				);

				CREATE TABLE IF NOT EXISTS polls (
					id BIGSERIAL PRIMARY KEY,
					conference_id BIGINT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
					title VARCHAR(512) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS questions (
					id BIGSERIAL PRIMARY KEY,
					conference_id BIGINT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
					body TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS meetings (
					id BIGSERIAL PRIMARY KEY,
					conference_id BIGINT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
					party_a BIGINT NOT NULL REFERENCES participants(id),
					party_b BIGINT NOT NULL REFERENCES participants(id),
					status VARCHAR(32) NOT NULL DEFAULT 'scheduled',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_participants_conference_status ON participants(conference_id, status);
				CREATE INDEX idx_polls_conference_id ON polls(conference_id);
				CREATE INDEX idx_questions_conference_id ON questions(conference_id);
				CREATE INDEX idx_meetings_conference_id ON meetings(conference_id);
				CREATE INDEX idx_meetings_party_a ON meetings(party_a);
				CREATE INDEX idx_meetings_party_b ON meetings(party_b);
			`,
		},
	}
}

// RunMigrations applies all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	// Create migration tracking table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS eventlane_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	rows, err := db.QueryContext(ctx, "SELECT version FROM eventlane_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	// Run pending migrations
	migrations := GetMigrations()
	for _, migration := range migrations {
		if appliedVersions[migration.Version] {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Description)

		// Start transaction
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		// Execute migration
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		// Record migration
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO eventlane_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		// Commit transaction
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
