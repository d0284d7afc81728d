package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/subscriptions"
)

// SubscriptionStore is the subscription access the engine needs
type SubscriptionStore interface {
	Current(ctx context.Context, ref subscriptions.PrincipalRef, now time.Time) (*subscriptions.Subscription, error)
	Latest(ctx context.Context, ref subscriptions.PrincipalRef) (*subscriptions.Subscription, error)
	Create(ctx context.Context, sub *subscriptions.Subscription) (*subscriptions.Subscription, error)
	Update(ctx context.Context, sub *subscriptions.Subscription) (*subscriptions.Subscription, error)
}

// PlanSource is the plan catalog access the engine needs
type PlanSource interface {
	GetPlan(ctx context.Context, id int64) (*plans.Plan, error)
	GetDefaultPlan(ctx context.Context) (*plans.Plan, error)
}

// AccountDirectory is the account and membership access the engine needs
type AccountDirectory interface {
	GetAccount(ctx context.Context, id int64) (*directory.Account, error)
	FirstConferenceAdmin(ctx context.Context, conferenceID int64) (*directory.Account, error)
	ActiveParticipant(ctx context.Context, conferenceID, accountID int64) (*directory.Participant, error)
}

// UsageSource supplies live resource counts for quota checks
type UsageSource interface {
	ConferencesFor(ctx context.Context, accountID int64, externalID string) (int64, error)
	ActiveParticipants(ctx context.Context, conferenceID int64) (int64, error)
	Polls(ctx context.Context, conferenceID int64) (int64, error)
	Questions(ctx context.Context, conferenceID int64) (int64, error)
	Meetings(ctx context.Context, conferenceID int64) (int64, error)
	MeetingsWithParticipant(ctx context.Context, participantID int64) (int64, error)
}

// Engine resolves effective plans and evaluates quota and feature checks
type Engine struct {
	subscriptions SubscriptionStore
	plans         PlanSource
	directory     AccountDirectory
	usage         UsageSource
	logger        *observability.Logger
	metrics       *observability.Metrics
	now           func() time.Time
	strategies    []resolveFunc
}

// NewEngine creates an entitlement engine. The metrics argument may be nil.
func NewEngine(subs SubscriptionStore, catalog PlanSource, dir AccountDirectory, usage UsageSource, logger *observability.Logger, metrics *observability.Metrics) *Engine {
	e := &Engine{
		subscriptions: subs,
		plans:         catalog,
		directory:     dir,
		usage:         usage,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
	e.strategies = []resolveFunc{
		e.resolveDirect,
		e.resolveInherited,
		e.resolveDefault,
		e.resolveRestricted,
	}
	return e
}

// AssignOption adjusts the subscription produced by AssignPlan before it is
// written. Options apply after the defaults, so they override them.
type AssignOption func(*subscriptions.Subscription)

// WithStatus assigns the subscription with the given lifecycle status
// instead of the active default. Unknown statuses fail validation on write.
func WithStatus(status subscriptions.Status) AssignOption {
	return func(s *subscriptions.Subscription) { s.Status = status }
}

// WithEndsAt puts an end date on the assigned subscription. The date is
// inclusive: the subscription still resolves at exactly this instant.
func WithEndsAt(endsAt time.Time) AssignOption {
	return func(s *subscriptions.Subscription) { s.EndsAt = &endsAt }
}

// AssignPlan binds a principal to a plan. An existing subscription is moved
// to the new plan and reactivated in place, keeping its start date and row;
// otherwise a new active subscription starting now is created. Subscription
// rows are never deleted, so reassignment preserves billing history.
func (e *Engine) AssignPlan(ctx context.Context, ref subscriptions.PrincipalRef, planID int64, opts ...AssignOption) (*subscriptions.Subscription, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	plan, err := e.plans.GetPlan(ctx, planID)
	if err != nil {
		if !errors.Is(err, plans.ErrPlanNotFound) {
			e.observeStorageError("plan_lookup")
		}
		return nil, fmt.Errorf("failed to load plan %d: %w", planID, err)
	}

	existing, err := e.subscriptions.Latest(ctx, ref)
	if err != nil && !errors.Is(err, subscriptions.ErrSubscriptionNotFound) {
		e.observeStorageError("subscription_lookup")
		return nil, fmt.Errorf("failed to look up existing subscription: %w", err)
	}

	if existing != nil {
		existing.PlanID = plan.ID
		existing.Status = subscriptions.StatusActive
		existing.EndsAt = nil
		existing.TrialEndsAt = nil
		for _, opt := range opts {
			opt(existing)
		}
		updated, err := e.subscriptions.Update(ctx, existing)
		if err != nil {
			if !subscriptions.IsValidationError(err) {
				e.observeStorageError("subscription_write")
			}
			return nil, err
		}
		e.logger.WithFields(map[string]interface{}{
			"principal": ref.String(),
			"plan":      plan.Name,
		}).Info("moved subscription to plan")
		return updated, nil
	}

	sub := &subscriptions.Subscription{
		UserID:       ref.UserID,
		ConferenceID: ref.ConferenceID,
		PlanID:       plan.ID,
		Status:       subscriptions.StatusActive,
		StartsAt:     e.now(),
	}
	for _, opt := range opts {
		opt(sub)
	}
	created, err := e.subscriptions.Create(ctx, sub)
	if err != nil {
		if !subscriptions.IsValidationError(err) {
			e.observeStorageError("subscription_write")
		}
		return nil, err
	}
	e.logger.WithFields(map[string]interface{}{
		"principal": ref.String(),
		"plan":      plan.Name,
	}).Info("created subscription")
	return created, nil
}

// observeStorageError counts a failed storage call. Sentinel misses are not
// storage errors and must not be counted by callers.
func (e *Engine) observeStorageError(operation string) {
	if e.metrics == nil {
		return
	}
	e.metrics.StorageErrorsTotal.WithLabelValues(operation).Inc()
}

func (e *Engine) observeResolution(principal Principal, source Source, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.ResolutionsTotal.WithLabelValues(string(principal.Kind), string(source)).Inc()
	e.metrics.ResolutionDuration.WithLabelValues(string(principal.Kind)).Observe(elapsed.Seconds())
}

func (e *Engine) observeCheck(kind plans.ResourceKind, allowed bool, reason ReasonCode) {
	if e.metrics == nil {
		return
	}
	e.metrics.ChecksTotal.WithLabelValues(string(kind), strconv.FormatBool(allowed)).Inc()
	if !allowed {
		e.metrics.DenialsTotal.WithLabelValues(string(kind), string(reason)).Inc()
	}
}
