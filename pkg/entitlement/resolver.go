package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/subscriptions"
)

// resolveFunc is one step of the fallback chain. A nil plan with a nil error
// means the step does not apply and the next one runs.
type resolveFunc func(ctx context.Context, principal Principal) (*EffectivePlan, error)

// ResolvePlan walks the fallback chain for a principal and returns the first
// plan a step produces. The restricted step always matches, so a successful
// call is guaranteed unless storage fails.
func (e *Engine) ResolvePlan(ctx context.Context, principal Principal) (*EffectivePlan, error) {
	if !principal.Kind.Valid() {
		return nil, fmt.Errorf("unknown principal kind %q", principal.Kind)
	}

	start := time.Now()
	for _, resolve := range e.strategies {
		plan, err := resolve(ctx, principal)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			continue
		}
		e.observeResolution(principal, plan.Source, time.Since(start))
		e.logger.WithFields(map[string]interface{}{
			"principal": principal.String(),
			"plan":      plan.PlanName,
			"source":    string(plan.Source),
		}).Debug("resolved effective plan")
		return plan, nil
	}

	return nil, fmt.Errorf("no resolution step matched principal %s", principal)
}

// resolveDirect matches a current subscription held by the principal itself.
// When several rows qualify the store returns the most recently created one.
func (e *Engine) resolveDirect(ctx context.Context, principal Principal) (*EffectivePlan, error) {
	sub, err := e.subscriptions.Current(ctx, principal.Ref(), e.now())
	if errors.Is(err, subscriptions.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		e.observeStorageError("subscription_lookup")
		return nil, fmt.Errorf("failed to resolve direct subscription: %w", err)
	}

	plan, err := e.plans.GetPlan(ctx, sub.PlanID)
	if errors.Is(err, plans.ErrPlanNotFound) {
		// A dangling plan reference must not break resolution; the next
		// step takes over.
		e.logger.WithFields(map[string]interface{}{
			"principal": principal.String(),
			"plan_id":   sub.PlanID,
		}).Warn("subscription references a missing plan")
		return nil, nil
	}
	if err != nil {
		e.observeStorageError("plan_lookup")
		return nil, fmt.Errorf("failed to load plan %d: %w", sub.PlanID, err)
	}

	return planEffective(plan, SourceDirect, string(sub.Status)), nil
}

// resolveInherited lets a conference borrow the subscription of its first
// listed administrator. Only a subscription the administrator holds directly
// is inherited; if the administrator would themselves fall back to the
// default plan, the conference keeps walking its own chain instead.
func (e *Engine) resolveInherited(ctx context.Context, principal Principal) (*EffectivePlan, error) {
	if principal.Kind != PrincipalConference {
		return nil, nil
	}

	admin, err := e.directory.FirstConferenceAdmin(ctx, principal.ID)
	if errors.Is(err, directory.ErrNoAdministrator) {
		return nil, nil
	}
	if err != nil {
		e.observeStorageError("admin_lookup")
		return nil, fmt.Errorf("failed to look up conference administrator: %w", err)
	}

	plan, err := e.resolveDirect(ctx, UserPrincipal(admin.ID))
	if err != nil || plan == nil {
		return plan, err
	}
	plan.Source = SourceInherited
	return plan, nil
}

// resolveDefault matches the catalog's default plan, if one is configured
func (e *Engine) resolveDefault(ctx context.Context, principal Principal) (*EffectivePlan, error) {
	plan, err := e.plans.GetDefaultPlan(ctx)
	if errors.Is(err, plans.ErrNoDefaultPlan) {
		return nil, nil
	}
	if err != nil {
		e.observeStorageError("default_plan_lookup")
		return nil, fmt.Errorf("failed to load default plan: %w", err)
	}
	return planEffective(plan, SourceDefault, StatusNone), nil
}

// resolveRestricted is the terminal step and always matches
func (e *Engine) resolveRestricted(ctx context.Context, principal Principal) (*EffectivePlan, error) {
	return restrictedEffective(), nil
}
