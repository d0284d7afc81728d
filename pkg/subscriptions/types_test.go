package subscriptions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Valid(t *testing.T) {
	for _, status := range AllStatuses() {
		assert.True(t, status.Valid(), "status %s", status)
	}
	assert.False(t, Status("paused").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_Current(t *testing.T) {
	assert.True(t, StatusActive.Current())
	assert.True(t, StatusTrial.Current())
	assert.False(t, StatusExpired.Current())
	assert.False(t, StatusCancelled.Current())
}

func TestPrincipalRef_Validate(t *testing.T) {
	assert.NoError(t, ForUser(5).Validate())
	assert.NoError(t, ForConference(9).Validate())

	// Neither side set
	err := PrincipalRef{}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Both sides set
	userID, confID := int64(5), int64(9)
	err = PrincipalRef{UserID: &userID, ConferenceID: &confID}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestPrincipalRef_String(t *testing.T) {
	assert.Equal(t, "user:5", ForUser(5).String())
	assert.Equal(t, "conference:9", ForConference(9).String())
	assert.Equal(t, "unset", PrincipalRef{}.String())
}

func TestSubscription_CurrentAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := int64(5)

	base := Subscription{UserID: &userID, PlanID: 1, Status: StatusActive}

	// No end date never expires
	assert.True(t, base.CurrentAt(now))

	// Trial status counts
	trial := base
	trial.Status = StatusTrial
	assert.True(t, trial.CurrentAt(now))

	// Expired and cancelled never count, whatever the dates say
	for _, status := range []Status{StatusExpired, StatusCancelled} {
		ended := base
		ended.Status = status
		assert.False(t, ended.CurrentAt(now), "status %s", status)
	}

	// End date in the future counts
	future := now.Add(24 * time.Hour)
	withFuture := base
	withFuture.EndsAt = &future
	assert.True(t, withFuture.CurrentAt(now))

	// End date exactly now still counts: the boundary is inclusive
	atNow := base
	endsNow := now
	atNow.EndsAt = &endsNow
	assert.True(t, atNow.CurrentAt(now))

	// End date in the past does not
	past := now.Add(-time.Second)
	lapsed := base
	lapsed.EndsAt = &past
	assert.False(t, lapsed.CurrentAt(now))
}

func TestSubscription_Validate(t *testing.T) {
	userID := int64(5)

	valid := &Subscription{UserID: &userID, PlanID: 1, Status: StatusActive}
	assert.NoError(t, valid.Validate())

	noPlan := &Subscription{UserID: &userID, Status: StatusActive}
	require.Error(t, noPlan.Validate())
	assert.True(t, IsValidationError(noPlan.Validate()))

	badStatus := &Subscription{UserID: &userID, PlanID: 1, Status: "paused"}
	require.Error(t, badStatus.Validate())

	noPrincipal := &Subscription{PlanID: 1, Status: StatusActive}
	require.Error(t, noPrincipal.Validate())
}

func TestSubscription_Principal(t *testing.T) {
	confID := int64(9)
	sub := &Subscription{ConferenceID: &confID, PlanID: 1, Status: StatusActive}

	ref := sub.Principal()
	require.NotNil(t, ref.ConferenceID)
	assert.Equal(t, int64(9), *ref.ConferenceID)
	assert.Nil(t, ref.UserID)
}
