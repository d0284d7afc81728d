package entitlement

import (
	"fmt"

	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/subscriptions"
)

// PrincipalKind distinguishes the two kinds of plan holders
type PrincipalKind string

const (
	PrincipalUser       PrincipalKind = "user"
	PrincipalConference PrincipalKind = "conference"
)

// Valid reports whether the kind is known
func (k PrincipalKind) Valid() bool {
	return k == PrincipalUser || k == PrincipalConference
}

// Principal identifies the subject of a resolution
type Principal struct {
	Kind PrincipalKind `json:"kind"`
	ID   int64         `json:"id"`
}

// UserPrincipal returns the principal for a user account
func UserPrincipal(id int64) Principal {
	return Principal{Kind: PrincipalUser, ID: id}
}

// ConferencePrincipal returns the principal for a conference
func ConferencePrincipal(id int64) Principal {
	return Principal{Kind: PrincipalConference, ID: id}
}

// Ref converts the principal to a subscription holder reference
func (p Principal) Ref() subscriptions.PrincipalRef {
	if p.Kind == PrincipalConference {
		return subscriptions.ForConference(p.ID)
	}
	return subscriptions.ForUser(p.ID)
}

func (p Principal) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// Source records which step of the fallback chain produced an effective plan
type Source string

const (
	SourceDirect     Source = "direct"
	SourceInherited  Source = "inherited"
	SourceDefault    Source = "default"
	SourceRestricted Source = "restricted"
)

// StatusNone is reported when no subscription backs the effective plan,
// which is the case for the default and restricted sources.
const StatusNone = "none"

// RestrictedPlanName names the built-in zero-quota plan used when neither a
// subscription nor a default plan exists.
const RestrictedPlanName = "restricted"

// EffectivePlan is the outcome of resolution: the limits and features that
// govern a principal right now, and where they came from.
type EffectivePlan struct {
	PlanID      int64                              `json:"plan_id,omitempty"`
	PlanName    string                             `json:"plan_name"`
	DisplayName string                             `json:"display_name"`
	Limits      map[plans.ResourceKind]plans.Limit `json:"limits"`
	Features    map[string]bool                    `json:"features"`
	Source      Source                             `json:"source"`
	Status      string                             `json:"status"`
}

// LimitFor returns the resolved limit for a resource kind. Kinds the plan
// does not mention are uncapped.
func (e *EffectivePlan) LimitFor(kind plans.ResourceKind) plans.Limit {
	if l, ok := e.Limits[kind]; ok {
		return l
	}
	return plans.Unlimited()
}

// FeatureEnabled reports whether a feature flag is set on the effective
// plan. Unknown names return false.
func (e *EffectivePlan) FeatureEnabled(name string) bool {
	return e.Features[name]
}

// planEffective converts a catalog plan into the resolved form
func planEffective(p *plans.Plan, source Source, status string) *EffectivePlan {
	limits := make(map[plans.ResourceKind]plans.Limit, len(p.Limits))
	for kind, v := range p.Limits {
		limits[kind] = plans.LimitFromStored(v)
	}
	features := make(map[string]bool, len(p.Features))
	for name, enabled := range p.Features {
		features[name] = enabled
	}
	return &EffectivePlan{
		PlanID:      p.ID,
		PlanName:    p.Name,
		DisplayName: p.DisplayName,
		Limits:      limits,
		Features:    features,
		Source:      source,
		Status:      status,
	}
}

// restrictedEffective builds the terminal plan: every kind capped at zero
// and no features, so an unconfigured deployment denies rather than grants.
func restrictedEffective() *EffectivePlan {
	limits := make(map[plans.ResourceKind]plans.Limit)
	for _, kind := range plans.AllResourceKinds() {
		limits[kind] = plans.Bounded(0)
	}
	return &EffectivePlan{
		PlanName:    RestrictedPlanName,
		DisplayName: "Restricted",
		Limits:      limits,
		Features:    map[string]bool{},
		Source:      SourceRestricted,
		Status:      StatusNone,
	}
}

// ReasonCode explains a denied check
type ReasonCode string

const (
	// ReasonLimitExceeded means the principal reached a plan ceiling
	ReasonLimitExceeded ReasonCode = "limit_exceeded"

	// ReasonUserMeetingLimitExceeded means the per-participant meeting
	// allowance was reached even though the conference total was not
	ReasonUserMeetingLimitExceeded ReasonCode = "user_meeting_limit_exceeded"

	// ReasonNotInConference means the user has no active participant
	// profile in the conference
	ReasonNotInConference ReasonCode = "not_in_conference"

	// ReasonUserNotFound means the user account does not exist
	ReasonUserNotFound ReasonCode = "user_not_found"
)

// CheckResult is the outcome of a quota check. A denial is a result, not an
// error; errors are reserved for storage failures. Precondition denials
// (user_not_found, not_in_conference) carry a zero limit and count because
// no ceiling was evaluated.
type CheckResult struct {
	Allowed bool        `json:"allowed"`
	Limit   plans.Limit `json:"limit"`
	Current int64       `json:"current"`
	Reason  ReasonCode  `json:"reason,omitempty"`
}

func allowedResult(limit plans.Limit, current int64) *CheckResult {
	return &CheckResult{Allowed: true, Limit: limit, Current: current}
}

func deniedResult(limit plans.Limit, current int64, reason ReasonCode) *CheckResult {
	return &CheckResult{Allowed: false, Limit: limit, Current: current, Reason: reason}
}
