// Package entitlement answers the two questions the rest of the platform
// asks about a principal: which plan governs it right now, and does that
// plan permit the action being attempted.
//
// # Overview
//
// The engine resolves an EffectivePlan for a principal (a user account or a
// conference) and evaluates quota and feature checks against it. Resolution
// walks an ordered fallback chain and the first step that produces a plan
// wins:
//
//  1. direct: a current subscription held by the principal itself
//  2. inherited: for conferences, a subscription held directly by the first
//     listed conference administrator
//  3. default: the catalog's default plan
//  4. restricted: a built-in zero-quota plan
//
// The restricted step always matches, so resolution never fails for lack of
// data. Errors are reserved for storage failures.
//
// # Checks
//
// A quota check compares a live resource count against the resolved ceiling
// and returns a CheckResult. Denials are results carrying a ReasonCode, not
// errors; callers branch on Allowed and surface Reason, Limit and Current to
// the client. Counts are read fresh on every check, nothing is reserved or
// decremented.
//
// # Usage
//
//	engine := entitlement.NewEngine(store, catalog, dir, counters, logger, metrics)
//
//	result, err := engine.CanCreatePoll(ctx, conferenceID)
//	if err != nil {
//		return err
//	}
//	if !result.Allowed {
//		return fmt.Errorf("poll limit reached (%d of %s)", result.Current, result.Limit)
//	}
//
// # Related Packages
//
//   - pkg/plans: plan catalog, limits and feature flags
//   - pkg/subscriptions: subscription storage
//   - pkg/directory: accounts, administrators and participants
//   - pkg/usage: live resource counts
package entitlement
