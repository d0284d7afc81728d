package entitlement

import (
	"context"
	"strconv"
)

// IsFeatureEnabled reports whether a feature flag is set on the principal's
// effective plan. Flags the plan does not mention are disabled, so a typo or
// an unknown name can never grant access.
func (e *Engine) IsFeatureEnabled(ctx context.Context, principal Principal, feature string) (bool, error) {
	plan, err := e.ResolvePlan(ctx, principal)
	if err != nil {
		return false, err
	}

	enabled := plan.FeatureEnabled(feature)
	if e.metrics != nil {
		e.metrics.FeatureLookupsTotal.WithLabelValues(feature, strconv.FormatBool(enabled)).Inc()
	}
	return enabled, nil
}
