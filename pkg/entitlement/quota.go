package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/plans"
)

// CheckLimit evaluates one resource ceiling for a principal against a
// caller-supplied current count. Counts are never cached or reserved here;
// the caller reads them at check time.
func (e *Engine) CheckLimit(ctx context.Context, principal Principal, kind plans.ResourceKind, current int64) (*CheckResult, error) {
	plan, err := e.ResolvePlan(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.evaluate(plan, kind, current, ReasonLimitExceeded), nil
}

// CanCreateConference checks the account-wide conference ceiling. The count
// covers conferences the account created plus those it administers,
// de-duplicated.
func (e *Engine) CanCreateConference(ctx context.Context, accountID int64) (*CheckResult, error) {
	account, err := e.directory.GetAccount(ctx, accountID)
	if errors.Is(err, directory.ErrAccountNotFound) {
		return e.denyPrecondition(plans.ResourceConference, ReasonUserNotFound), nil
	}
	if err != nil {
		e.observeStorageError("account_lookup")
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}

	plan, err := e.ResolvePlan(ctx, UserPrincipal(account.ID))
	if err != nil {
		return nil, err
	}

	current, err := e.usage.ConferencesFor(ctx, account.ID, account.ExternalID)
	if err != nil {
		e.observeStorageError("usage_count")
		return nil, fmt.Errorf("failed to count conferences: %w", err)
	}
	return e.evaluate(plan, plans.ResourceConference, current, ReasonLimitExceeded), nil
}

// CanAddParticipant checks the active participant ceiling of a conference
func (e *Engine) CanAddParticipant(ctx context.Context, conferenceID int64) (*CheckResult, error) {
	return e.checkConferenceResource(ctx, conferenceID, plans.ResourceParticipant, e.usage.ActiveParticipants)
}

// CanCreatePoll checks the poll ceiling of a conference. Whether polls are
// enabled at all is a separate feature gate.
func (e *Engine) CanCreatePoll(ctx context.Context, conferenceID int64) (*CheckResult, error) {
	return e.checkConferenceResource(ctx, conferenceID, plans.ResourcePoll, e.usage.Polls)
}

// CanCreateQuestion checks the question ceiling of a conference
func (e *Engine) CanCreateQuestion(ctx context.Context, conferenceID int64) (*CheckResult, error) {
	return e.checkConferenceResource(ctx, conferenceID, plans.ResourceQuestion, e.usage.Questions)
}

// CanCreateMeeting checks the conference-wide meeting ceiling
func (e *Engine) CanCreateMeeting(ctx context.Context, conferenceID int64) (*CheckResult, error) {
	return e.checkConferenceResource(ctx, conferenceID, plans.ResourceMeeting, e.usage.Meetings)
}

// CanUserCreateMeeting checks both meeting ceilings: the conference-wide
// total and the per-participant allowance. The user must exist and hold an
// active participant profile in the conference regardless of either count.
func (e *Engine) CanUserCreateMeeting(ctx context.Context, conferenceID, accountID int64) (*CheckResult, error) {
	if _, err := e.directory.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, directory.ErrAccountNotFound) {
			return e.denyPrecondition(plans.ResourceMeeting, ReasonUserNotFound), nil
		}
		e.observeStorageError("account_lookup")
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}

	participant, err := e.directory.ActiveParticipant(ctx, conferenceID, accountID)
	if errors.Is(err, directory.ErrParticipantNotFound) {
		return e.denyPrecondition(plans.ResourceMeeting, ReasonNotInConference), nil
	}
	if err != nil {
		e.observeStorageError("participant_lookup")
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	plan, err := e.ResolvePlan(ctx, ConferencePrincipal(conferenceID))
	if err != nil {
		return nil, err
	}

	total, err := e.usage.Meetings(ctx, conferenceID)
	if err != nil {
		e.observeStorageError("usage_count")
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}
	if result := e.evaluate(plan, plans.ResourceMeeting, total, ReasonLimitExceeded); !result.Allowed {
		return result, nil
	}

	mine, err := e.usage.MeetingsWithParticipant(ctx, participant.ID)
	if err != nil {
		e.observeStorageError("usage_count")
		return nil, fmt.Errorf("failed to count participant meetings: %w", err)
	}
	return e.evaluate(plan, plans.ResourceMeetingPerUser, mine, ReasonUserMeetingLimitExceeded), nil
}

// checkConferenceResource resolves the conference's plan and applies one
// ceiling to a freshly read count
func (e *Engine) checkConferenceResource(ctx context.Context, conferenceID int64, kind plans.ResourceKind, count func(context.Context, int64) (int64, error)) (*CheckResult, error) {
	plan, err := e.ResolvePlan(ctx, ConferencePrincipal(conferenceID))
	if err != nil {
		return nil, err
	}

	current, err := count(ctx, conferenceID)
	if err != nil {
		e.observeStorageError("usage_count")
		return nil, fmt.Errorf("failed to count %s resources: %w", kind, err)
	}
	return e.evaluate(plan, kind, current, ReasonLimitExceeded), nil
}

// evaluate applies a resolved limit to a count and records the outcome
func (e *Engine) evaluate(plan *EffectivePlan, kind plans.ResourceKind, current int64, denialReason ReasonCode) *CheckResult {
	limit := plan.LimitFor(kind)
	if limit.Allows(current) {
		e.observeCheck(kind, true, "")
		return allowedResult(limit, current)
	}
	e.observeCheck(kind, false, denialReason)
	return deniedResult(limit, current, denialReason)
}

// denyPrecondition records and builds a denial that happened before any
// ceiling was evaluated
func (e *Engine) denyPrecondition(kind plans.ResourceKind, reason ReasonCode) *CheckResult {
	e.observeCheck(kind, false, reason)
	return deniedResult(plans.Bounded(0), 0, reason)
}
