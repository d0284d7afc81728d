package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Account is an individual user account
type Account struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participant is an account's profile within one conference
type Participant struct {
	ID           int64     `json:"id"`
	ConferenceID int64     `json:"conference_id"`
	AccountID    int64     `json:"account_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrAccountNotFound indicates no account matched the lookup
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoAdministrator indicates a conference has no listed administrators
	ErrNoAdministrator = errors.New("conference has no administrators")

	// ErrParticipantNotFound indicates the account holds no active
	// participant profile in the conference
	ErrParticipantNotFound = errors.New("participant not found")
)

// Directory resolves principals and their conference relationships
type Directory interface {
	// GetAccount retrieves an account by internal id
	GetAccount(ctx context.Context, id int64) (*Account, error)

	// AccountByExternalID maps an external account identifier to the
	// internal account record
	AccountByExternalID(ctx context.Context, externalID string) (*Account, error)

	// FirstConferenceAdmin returns the first listed administrator account of
	// a conference, the target of subscription inheritance
	FirstConferenceAdmin(ctx context.Context, conferenceID int64) (*Account, error)

	// ActiveParticipant returns the account's active participant profile in
	// the conference, or ErrParticipantNotFound
	ActiveParticipant(ctx context.Context, conferenceID, accountID int64) (*Participant, error)
}

// PostgresDirectory implements Directory using PostgreSQL
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a new PostgreSQL-backed directory
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// GetAccount retrieves an account by internal id
func (d *PostgresDirectory) GetAccount(ctx context.Context, id int64) (*Account, error) {
	query := `SELECT id, external_id, display_name, created_at FROM accounts WHERE id = $1`

	account := &Account{}
	err := d.db.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.ExternalID, &account.DisplayName, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// AccountByExternalID maps an external identifier to an account
func (d *PostgresDirectory) AccountByExternalID(ctx context.Context, externalID string) (*Account, error) {
	query := `SELECT id, external_id, display_name, created_at FROM accounts WHERE external_id = $1`

	account := &Account{}
	err := d.db.QueryRowContext(ctx, query, externalID).
		Scan(&account.ID, &account.ExternalID, &account.DisplayName, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by external id: %w", err)
	}
	return account, nil
}

// FirstConferenceAdmin returns the first listed administrator of a conference
func (d *PostgresDirectory) FirstConferenceAdmin(ctx context.Context, conferenceID int64) (*Account, error) {
	query := `
		SELECT a.id, a.external_id, a.display_name, a.created_at
		FROM conference_admins ca
		JOIN accounts a ON a.id = ca.account_id
		WHERE ca.conference_id = $1
		ORDER BY ca.position ASC, ca.id ASC
		LIMIT 1
	`

	account := &Account{}
	err := d.db.QueryRowContext(ctx, query, conferenceID).
		Scan(&account.ID, &account.ExternalID, &account.DisplayName, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoAdministrator
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first conference admin: %w", err)
	}
	return account, nil
}

// ActiveParticipant returns the account's active profile in the conference
func (d *PostgresDirectory) ActiveParticipant(ctx context.Context, conferenceID, accountID int64) (*Participant, error) {
	query := `
		SELECT id, conference_id, account_id, status, created_at
		FROM participants
		WHERE conference_id = $1 AND account_id = $2 AND status = 'active'
	`

	participant := &Participant{}
	err := d.db.QueryRowContext(ctx, query, conferenceID, accountID).
		Scan(&participant.ID, &participant.ConferenceID, &participant.AccountID,
			&participant.Status, &participant.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active participant: %w", err)
	}
	return participant, nil
}
