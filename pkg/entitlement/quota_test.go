package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/subscriptions"
)

// conferenceOnPro wires a conference with a direct pro subscription
func conferenceOnPro(conferenceID int64) (*fakeSubscriptions, *fakePlans) {
	subs := newFakeSubscriptions()
	subs.add(activeSub(subscriptions.ForConference(conferenceID), 2))
	return subs, newFakePlans(freePlan(), proPlan())
}

func TestCheckLimit_UnlimitedAllowsAnyCount(t *testing.T) {
	subs := newFakeSubscriptions()
	subs.add(activeSub(subscriptions.ForConference(9), 3))
	engine := newTestEngine(subs, newFakePlans(enterprisePlan()), newFakeDirectory(), newFakeUsage())

	result, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourcePoll, 10_000_000)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.True(t, result.Limit.IsUnlimited())
	assert.Equal(t, int64(10_000_000), result.Current)
	assert.Empty(t, result.Reason)
}

func TestCheckLimit_JustBelowCeiling(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	engine := newTestEngine(subs, catalog, newFakeDirectory(), newFakeUsage())

	result, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourcePoll, 9)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.Equal(t, int64(9), result.Current)
}

func TestCheckLimit_AtCeiling(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	engine := newTestEngine(subs, catalog, newFakeDirectory(), newFakeUsage())

	result, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourcePoll, 10)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	assert.Equal(t, int64(10), result.Limit.Stored())
	assert.Equal(t, int64(10), result.Current)
}

func TestCheckLimit_AbsentKindIsUncapped(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	engine := newTestEngine(subs, catalog, newFakeDirectory(), newFakeUsage())

	result, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourceSpeaker, 7500)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.True(t, result.Limit.IsUnlimited())
}

func TestCheckLimit_ZeroCeilingDeniesFirstCreate(t *testing.T) {
	subs := newFakeSubscriptions()
	subs.add(activeSub(subscriptions.ForConference(9), 1))
	engine := newTestEngine(subs, newFakePlans(freePlan()), newFakeDirectory(), newFakeUsage())

	result, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourceMeeting, 0)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
}

func TestCanCreateConference_UserNotFound(t *testing.T) {
	engine := newTestEngine(newFakeSubscriptions(), newFakePlans(freePlan()), newFakeDirectory(), newFakeUsage())

	result, err := engine.CanCreateConference(context.Background(), 404)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonUserNotFound, result.Reason)
}

func TestCanCreateConference_Allowed(t *testing.T) {
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	usage := newFakeUsage()
	usage.conferences = 0
	engine := newTestEngine(newFakeSubscriptions(), newFakePlans(freePlan()), dir, usage)

	result, err := engine.CanCreateConference(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.Equal(t, int64(1), result.Limit.Stored())
	assert.Equal(t, int64(0), result.Current)
}

func TestCanCreateConference_AtCeiling(t *testing.T) {
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	usage := newFakeUsage()
	usage.conferences = 1
	engine := newTestEngine(newFakeSubscriptions(), newFakePlans(freePlan()), dir, usage)

	result, err := engine.CanCreateConference(context.Background(), 5)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	assert.Equal(t, int64(1), result.Current)
}

func TestCanAddParticipant_AtCeiling(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	usage := newFakeUsage()
	usage.participants = 500
	engine := newTestEngine(subs, catalog, newFakeDirectory(), usage)

	result, err := engine.CanAddParticipant(context.Background(), 9)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	assert.Equal(t, int64(500), result.Current)
}

func TestCanCreatePoll_FeatureEnabledButLimitReached(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	usage := newFakeUsage()
	usage.polls = 10
	engine := newTestEngine(subs, catalog, newFakeDirectory(), usage)

	enabled, err := engine.IsFeatureEnabled(context.Background(), ConferencePrincipal(9), plans.FeaturePolls)
	require.NoError(t, err)
	assert.True(t, enabled, "the feature gate stays open when only the ceiling is hit")

	result, err := engine.CanCreatePoll(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
}

func TestCanCreateQuestion_Allowed(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	usage := newFakeUsage()
	usage.questions = 99
	engine := newTestEngine(subs, catalog, newFakeDirectory(), usage)

	result, err := engine.CanCreateQuestion(context.Background(), 9)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.Equal(t, int64(99), result.Current)
}

func TestCanUserCreateMeeting_UserNotFound(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	engine := newTestEngine(subs, catalog, newFakeDirectory(), newFakeUsage())

	result, err := engine.CanUserCreateMeeting(context.Background(), 9, 404)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonUserNotFound, result.Reason)
}

func TestCanUserCreateMeeting_NotInConference(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	engine := newTestEngine(subs, catalog, dir, newFakeUsage())

	result, err := engine.CanUserCreateMeeting(context.Background(), 9, 5)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonNotInConference, result.Reason, "membership is checked before any count")
}

func TestCanUserCreateMeeting_ConferenceCeilingBinds(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	dir.addParticipant(51, 9, 5)
	usage := newFakeUsage()
	usage.meetings = 5
	engine := newTestEngine(subs, catalog, dir, usage)

	result, err := engine.CanUserCreateMeeting(context.Background(), 9, 5)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	assert.Equal(t, int64(5), result.Current)
}

func TestCanUserCreateMeeting_PerUserCeilingBinds(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	dir.addParticipant(51, 9, 5)
	usage := newFakeUsage()
	usage.meetings = 3
	usage.participantMeetings[51] = 2
	engine := newTestEngine(subs, catalog, dir, usage)

	result, err := engine.CanUserCreateMeeting(context.Background(), 9, 5)
	require.NoError(t, err)

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonUserMeetingLimitExceeded, result.Reason)
	assert.Equal(t, int64(2), result.Limit.Stored())
	assert.Equal(t, int64(2), result.Current)
}

func TestCanUserCreateMeeting_Allowed(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	dir.addParticipant(51, 9, 5)
	usage := newFakeUsage()
	usage.meetings = 3
	usage.participantMeetings[51] = 1
	engine := newTestEngine(subs, catalog, dir, usage)

	result, err := engine.CanUserCreateMeeting(context.Background(), 9, 5)
	require.NoError(t, err)

	assert.True(t, result.Allowed)
	assert.Equal(t, int64(1), result.Current)
	assert.Equal(t, int64(2), result.Limit.Stored())
}

func TestCanUserCreateMeeting_CountErrorPropagates(t *testing.T) {
	subs, catalog := conferenceOnPro(9)
	dir := newFakeDirectory()
	dir.addAccount(5, "auth0|alice")
	dir.addParticipant(51, 9, 5)
	usage := newFakeUsage()
	usage.err = errors.New("database error")
	engine := newTestEngine(subs, catalog, dir, usage)

	_, err := engine.CanUserCreateMeeting(context.Background(), 9, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count meetings")
}

func TestQuotaChecks_RecordMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	subs := newFakeSubscriptions()
	subs.add(activeSub(subscriptions.ForConference(9), 2))
	engine := NewEngine(subs, newFakePlans(freePlan(), proPlan()), newFakeDirectory(), newFakeUsage(), quietLogger(), metrics)

	_, err := engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourcePoll, 10)
	require.NoError(t, err)
	_, err = engine.CheckLimit(context.Background(), ConferencePrincipal(9), plans.ResourcePoll, 1)
	require.NoError(t, err)

	denied := metrics.ChecksTotal.WithLabelValues("poll", "false")
	assert.Equal(t, float64(1), testutil.ToFloat64(denied))

	allowed := metrics.ChecksTotal.WithLabelValues("poll", "true")
	assert.Equal(t, float64(1), testutil.ToFloat64(allowed))

	denials := metrics.DenialsTotal.WithLabelValues("poll", "limit_exceeded")
	assert.Equal(t, float64(1), testutil.ToFloat64(denials))
}

func TestQuotaChecks_CountStorageErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	subs, catalog := conferenceOnPro(9)
	usage := newFakeUsage()
	usage.err = errors.New("database error")
	engine := NewEngine(subs, catalog, newFakeDirectory(), usage, quietLogger(), metrics)

	_, err := engine.CanCreatePoll(context.Background(), 9)
	require.Error(t, err)

	counter := metrics.StorageErrorsTotal.WithLabelValues("usage_count")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}
