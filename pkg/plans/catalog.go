package plans

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Catalog defines plan catalog operations
type Catalog interface {
	// UpsertPlan validates and writes a plan definition, keyed by unique name.
	// Setting IsDefault clears the previous default atomically.
	UpsertPlan(ctx context.Context, plan *Plan) (*Plan, error)

	// GetPlan retrieves a plan by internal id
	GetPlan(ctx context.Context, id int64) (*Plan, error)

	// GetPlanByName retrieves a plan by unique name
	GetPlanByName(ctx context.Context, name string) (*Plan, error)

	// GetDefaultPlan returns the unique active default plan, or ErrNoDefaultPlan
	GetDefaultPlan(ctx context.Context) (*Plan, error)

	// ListActivePlans returns active plans ordered by ascending price
	ListActivePlans(ctx context.Context) ([]*Plan, error)
}

// PostgresCatalog implements Catalog using PostgreSQL
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog creates a new PostgreSQL-backed plan catalog
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const planColumns = `id, name, display_name, price_cents, limits, features, is_default, is_active, created_at, updated_at`

// UpsertPlan validates and writes a plan definition. A plan is keyed by its
// unique name: an existing row with the same name is updated in place.
// When the incoming definition has IsDefault set, every other plan loses the
// flag inside the same transaction so no reader can observe two defaults.
func (c *PostgresCatalog) UpsertPlan(ctx context.Context, plan *Plan) (*Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	limits := plan.Limits
	if limits == nil {
		limits = map[ResourceKind]int64{}
	}
	features := plan.Features
	if features == nil {
		features = map[string]bool{}
	}

	limitsJSON, err := json.Marshal(limits)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal limits: %w", err)
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if plan.IsDefault {
		clearQuery := `
			UPDATE plans
			SET is_default = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE is_default = TRUE AND name <> $1
		`
		if _, err := tx.ExecContext(ctx, clearQuery, plan.Name); err != nil {
			return nil, fmt.Errorf("failed to clear previous default plan: %w", err)
		}
	}

	upsertQuery := `
		INSERT INTO plans (name, display_name, price_cents, limits, features, is_default, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			price_cents = EXCLUDED.price_cents,
			limits = EXCLUDED.limits,
			features = EXCLUDED.features,
			is_default = EXCLUDED.is_default,
			is_active = EXCLUDED.is_active,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	saved := *plan
	err = tx.QueryRowContext(ctx, upsertQuery,
		plan.Name, plan.DisplayName, plan.PriceCents, limitsJSON, featuresJSON,
		plan.IsDefault, plan.IsActive).
		Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan upsert: %w", err)
	}

	return &saved, nil
}

// GetPlan retrieves a plan by internal id
func (c *PostgresCatalog) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	plan, err := scanPlan(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// GetPlanByName retrieves a plan by unique name
func (c *PostgresCatalog) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`
	plan, err := scanPlan(c.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by name: %w", err)
	}
	return plan, nil
}

// GetDefaultPlan returns the unique active default plan
func (c *PostgresCatalog) GetDefaultPlan(ctx context.Context) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_default = TRUE AND is_active = TRUE`
	plan, err := scanPlan(c.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, ErrNoDefaultPlan
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default plan: %w", err)
	}
	return plan, nil
}

// ListActivePlans returns active plans ordered by ascending price
func (c *PostgresCatalog) ListActivePlans(ctx context.Context) ([]*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_active = TRUE ORDER BY price_cents ASC, name ASC`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}
	defer rows.Close()

	var result []*Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		result = append(result, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return result, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (*Plan, error) {
	plan := &Plan{}
	var limitsJSON, featuresJSON []byte
	err := row.Scan(
		&plan.ID, &plan.Name, &plan.DisplayName, &plan.PriceCents,
		&limitsJSON, &featuresJSON, &plan.IsDefault, &plan.IsActive,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(limitsJSON, &plan.Limits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal limits: %w", err)
	}
	if err := json.Unmarshal(featuresJSON, &plan.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}

	return plan, nil
}
