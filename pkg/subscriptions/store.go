package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store defines subscription persistence operations. The engine resolves
// against Current and Latest; Create and Update back the assignment flow.
// Status and end-date transitions otherwise arrive from the billing pipeline.
type Store interface {
	// Current returns the subscription that counts toward resolution for the
	// principal at the given instant: status active or trial, end date unset
	// or not yet passed. With several matches the most recently created wins.
	Current(ctx context.Context, ref PrincipalRef, now time.Time) (*Subscription, error)

	// Latest returns the principal's most recently created subscription
	// regardless of status, the upsert target for plan assignment.
	Latest(ctx context.Context, ref PrincipalRef) (*Subscription, error)

	// GetByID retrieves a subscription by internal id
	GetByID(ctx context.Context, id int64) (*Subscription, error)

	// Create inserts a new subscription
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)

	// Update rewrites the mutable fields of an existing subscription
	Update(ctx context.Context, sub *Subscription) (*Subscription, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed subscription store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const subscriptionColumns = `id, public_id, user_id, conference_id, plan_id, status, starts_at, ends_at, trial_ends_at, created_at, updated_at`

// principalColumn maps a reference to its storage column
func principalColumn(ref PrincipalRef) (string, int64, error) {
	if err := ref.Validate(); err != nil {
		return "", 0, err
	}
	if ref.UserID != nil {
		return "user_id", *ref.UserID, nil
	}
	return "conference_id", *ref.ConferenceID, nil
}

// Current returns the subscription counting toward resolution at now
func (s *PostgresStore) Current(ctx context.Context, ref PrincipalRef, now time.Time) (*Subscription, error) {
	column, id, err := principalColumn(ref)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM subscriptions
		WHERE %s = $1
		  AND status IN ('active', 'trial')
		  AND (ends_at IS NULL OR ends_at >= $2)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, subscriptionColumns, column)

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id, now))
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}
	return sub, nil
}

// Latest returns the most recently created subscription for the principal
func (s *PostgresStore) Latest(ctx context.Context, ref PrincipalRef) (*Subscription, error) {
	column, id, err := principalColumn(ref)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM subscriptions
		WHERE %s = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, subscriptionColumns, column)

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest subscription: %w", err)
	}
	return sub, nil
}

// GetByID retrieves a subscription by internal id
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// Create inserts a new subscription. A missing public id is generated and a
// missing status defaults to active.
func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) (*Subscription, error) {
	saved := *sub
	if saved.Status == "" {
		saved.Status = StatusActive
	}
	if saved.PublicID == "" {
		saved.PublicID = uuid.New().String()
	}
	if err := saved.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO subscriptions (public_id, user_id, conference_id, plan_id, status, starts_at, ends_at, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		saved.PublicID, saved.UserID, saved.ConferenceID, saved.PlanID,
		saved.Status, saved.StartsAt, saved.EndsAt, saved.TrialEndsAt).
		Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return &saved, nil
}

// Update rewrites the mutable fields of an existing subscription
func (s *PostgresStore) Update(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE subscriptions
		SET plan_id = $1, status = $2, starts_at = $3, ends_at = $4,
		    trial_ends_at = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING updated_at
	`
	saved := *sub
	err := s.db.QueryRowContext(ctx, query,
		sub.PlanID, sub.Status, sub.StartsAt, sub.EndsAt, sub.TrialEndsAt, sub.ID).
		Scan(&saved.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	return &saved, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	sub := &Subscription{}
	err := row.Scan(
		&sub.ID, &sub.PublicID, &sub.UserID, &sub.ConferenceID, &sub.PlanID,
		&sub.Status, &sub.StartsAt, &sub.EndsAt, &sub.TrialEndsAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
