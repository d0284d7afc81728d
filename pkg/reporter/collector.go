package reporter

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eventlane/eventlane/pkg/entitlement"
	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/usage"
)

// PlanResolver resolves the effective plan for a principal. Satisfied by
// entitlement.Engine.
type PlanResolver interface {
	ResolvePlan(ctx context.Context, principal entitlement.Principal) (*entitlement.EffectivePlan, error)
}

// Collector samples catalog, subscription and resource totals from the
// database and publishes them as Prometheus gauges. It reads through the
// same counters and resolution chain the quota checks use, so the published
// totals match what enforcement sees.
type Collector struct {
	db          *sql.DB
	counters    usage.Counters
	resolver    PlanResolver
	logger      *observability.Logger
	metrics     *observability.Metrics
	concurrency int
}

// NewCollector creates a collector over the given database. concurrency
// bounds the per-conference fan-out.
func NewCollector(db *sql.DB, resolver PlanResolver, logger *observability.Logger, metrics *observability.Metrics, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		db:          db,
		counters:    usage.NewPostgresCounters(db),
		resolver:    resolver,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Collect runs one full sampling cycle. Gauges from a failed cycle are left
// at their previous values; the caller decides whether to retry or wait for
// the next tick.
func (c *Collector) Collect(ctx context.Context) error {
	started := time.Now()

	if err := c.collectPlans(ctx); err != nil {
		return fmt.Errorf("failed to collect plan totals: %w", err)
	}
	if err := c.collectSubscriptions(ctx); err != nil {
		return fmt.Errorf("failed to collect subscription totals: %w", err)
	}
	if err := c.collectSources(ctx); err != nil {
		return fmt.Errorf("failed to collect source distribution: %w", err)
	}
	if err := c.collectResources(ctx); err != nil {
		return fmt.Errorf("failed to collect resource totals: %w", err)
	}

	c.metrics.UpdateDBStats(c.db.Stats())

	c.logger.WithField("duration", time.Since(started).String()).Debug("usage report published")
	return nil
}

// collectPlans publishes the number of active plans in the catalog
func (c *Collector) collectPlans(ctx context.Context) error {
	query := `SELECT COUNT(*) FROM plans WHERE is_active = TRUE`

	var active int64
	if err := c.db.QueryRowContext(ctx, query).Scan(&active); err != nil {
		return fmt.Errorf("failed to count active plans: %w", err)
	}

	c.metrics.PlansActive.Set(float64(active))
	return nil
}

// collectSubscriptions publishes subscription counts grouped by status and
// by plan. The gauges are reset first so statuses that emptied out since the
// last cycle drop to absent rather than sticking at a stale value.
func (c *Collector) collectSubscriptions(ctx context.Context) error {
	byStatusQuery := `
		SELECT status, COUNT(*)
		FROM subscriptions
		GROUP BY status
	`

	rows, err := c.db.QueryContext(ctx, byStatusQuery)
	if err != nil {
		return fmt.Errorf("failed to count subscriptions by status: %w", err)
	}
	defer rows.Close()

	c.metrics.SubscriptionsByStatus.Reset()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return fmt.Errorf("failed to scan subscription status row: %w", err)
		}
		c.metrics.SubscriptionsByStatus.WithLabelValues(status).Set(float64(n))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subscription status rows: %w", err)
	}

	byPlanQuery := `
		SELECT p.name, s.status, COUNT(*)
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		GROUP BY p.name, s.status
	`

	planRows, err := c.db.QueryContext(ctx, byPlanQuery)
	if err != nil {
		return fmt.Errorf("failed to count subscriptions by plan: %w", err)
	}
	defer planRows.Close()

	c.metrics.SubscriptionsByPlan.Reset()
	for planRows.Next() {
		var plan, status string
		var n int64
		if err := planRows.Scan(&plan, &status, &n); err != nil {
			return fmt.Errorf("failed to scan subscription plan row: %w", err)
		}
		c.metrics.SubscriptionsByPlan.WithLabelValues(plan, status).Set(float64(n))
	}
	if err := planRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subscription plan rows: %w", err)
	}

	return nil
}

// collectSources publishes how many principals holding a current
// subscription resolve to each (plan, source) pair. Running every holder
// through the resolver surfaces drift a raw row count hides, such as a
// subscription row whose plan was deactivated and now falls through to the
// default.
func (c *Collector) collectSources(ctx context.Context) error {
	query := `
		SELECT user_id, conference_id
		FROM subscriptions
		WHERE status IN ('active', 'trial')
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list current subscription holders: %w", err)
	}
	defer rows.Close()

	var principals []entitlement.Principal
	for rows.Next() {
		var userID, conferenceID sql.NullInt64
		if err := rows.Scan(&userID, &conferenceID); err != nil {
			return fmt.Errorf("failed to scan subscription holder row: %w", err)
		}
		switch {
		case userID.Valid:
			principals = append(principals, entitlement.UserPrincipal(userID.Int64))
		case conferenceID.Valid:
			principals = append(principals, entitlement.ConferencePrincipal(conferenceID.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subscription holder rows: %w", err)
	}

	type planSource struct {
		plan   string
		source string
	}
	counts := make(map[planSource]int64)
	for _, principal := range principals {
		plan, err := c.resolver.ResolvePlan(ctx, principal)
		if err != nil {
			return fmt.Errorf("failed to resolve plan for %s: %w", principal, err)
		}
		counts[planSource{plan.PlanName, string(plan.Source)}]++
	}

	c.metrics.SubscriptionsBySource.Reset()
	for key, n := range counts {
		c.metrics.SubscriptionsBySource.WithLabelValues(key.plan, key.source).Set(float64(n))
	}
	return nil
}

// collectResources publishes stored resource totals per kind. Counting fans
// out per conference through the usage counters, bounded by the configured
// concurrency.
func (c *Collector) collectResources(ctx context.Context) error {
	ids, err := c.conferenceIDs(ctx)
	if err != nil {
		return err
	}

	var participants, polls, questions, meetings atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			n, err := c.counters.ActiveParticipants(gctx, id)
			if err != nil {
				return err
			}
			participants.Add(n)

			if n, err = c.counters.Polls(gctx, id); err != nil {
				return err
			}
			polls.Add(n)

			if n, err = c.counters.Questions(gctx, id); err != nil {
				return err
			}
			questions.Add(n)

			if n, err = c.counters.Meetings(gctx, id); err != nil {
				return err
			}
			meetings.Add(n)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.metrics.ResourceTotals.WithLabelValues(string(plans.ResourceConference)).Set(float64(len(ids)))
	c.metrics.ResourceTotals.WithLabelValues(string(plans.ResourceParticipant)).Set(float64(participants.Load()))
	c.metrics.ResourceTotals.WithLabelValues(string(plans.ResourcePoll)).Set(float64(polls.Load()))
	c.metrics.ResourceTotals.WithLabelValues(string(plans.ResourceQuestion)).Set(float64(questions.Load()))
	c.metrics.ResourceTotals.WithLabelValues(string(plans.ResourceMeeting)).Set(float64(meetings.Load()))

	return nil
}

// conferenceIDs lists all conference ids for the fan-out
func (c *Collector) conferenceIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM conferences ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conference id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conference ids: %w", err)
	}

	return ids, nil
}
