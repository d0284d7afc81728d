package usage

import (
	"context"
	"database/sql"
	"fmt"
)

// Counters reads live resource counts scoped to a principal or conference
type Counters interface {
	// ConferencesFor counts distinct conferences where the account is the
	// historical creator (matched by external id) or a listed administrator
	// (matched by internal id).
	ConferencesFor(ctx context.Context, accountID int64, externalID string) (int64, error)

	// ActiveParticipants counts active participant profiles in a conference
	ActiveParticipants(ctx context.Context, conferenceID int64) (int64, error)

	// Polls counts polls in a conference
	Polls(ctx context.Context, conferenceID int64) (int64, error)

	// Questions counts questions in a conference
	Questions(ctx context.Context, conferenceID int64) (int64, error)

	// Meetings counts meetings in a conference
	Meetings(ctx context.Context, conferenceID int64) (int64, error)

	// MeetingsWithParticipant counts meetings where the participant profile
	// is either party
	MeetingsWithParticipant(ctx context.Context, participantID int64) (int64, error)
}

// PostgresCounters implements Counters using PostgreSQL
type PostgresCounters struct {
	db *sql.DB
}

// NewPostgresCounters creates new PostgreSQL-backed counters
func NewPostgresCounters(db *sql.DB) *PostgresCounters {
	return &PostgresCounters{db: db}
}

// ConferencesFor counts the account's conferences, de-duplicated by id.
// The creator linkage matches on the external account identifier string; if
// that identifier ever changes upstream, historical creator rows stop
// counting toward the ceiling.
func (c *PostgresCounters) ConferencesFor(ctx context.Context, accountID int64, externalID string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT id FROM conferences WHERE created_by_external_id = $1
			UNION
			SELECT conference_id FROM conference_admins WHERE account_id = $2
		) owned
	`
	return c.count(ctx, query, externalID, accountID)
}

// ActiveParticipants counts active participant profiles in the conference
func (c *PostgresCounters) ActiveParticipants(ctx context.Context, conferenceID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM participants WHERE conference_id = $1 AND status = 'active'`
	return c.count(ctx, query, conferenceID)
}

// Polls counts polls in the conference
func (c *PostgresCounters) Polls(ctx context.Context, conferenceID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM polls WHERE conference_id = $1`
	return c.count(ctx, query, conferenceID)
}

// Questions counts questions in the conference
func (c *PostgresCounters) Questions(ctx context.Context, conferenceID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM questions WHERE conference_id = $1`
	return c.count(ctx, query, conferenceID)
}

// Meetings counts meetings in the conference
func (c *PostgresCounters) Meetings(ctx context.Context, conferenceID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM meetings WHERE conference_id = $1`
	return c.count(ctx, query, conferenceID)
}

// MeetingsWithParticipant counts meetings where the profile is either party
func (c *PostgresCounters) MeetingsWithParticipant(ctx context.Context, participantID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM meetings WHERE party_a = $1 OR party_b = $1`
	return c.count(ctx, query, participantID)
}

func (c *PostgresCounters) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}
