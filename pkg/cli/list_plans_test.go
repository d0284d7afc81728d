package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/eventlane/pkg/plans"
)

func TestListPlans_Empty(t *testing.T) {
	db := setupTestDB(t)

	var out bytes.Buffer
	err := listPlans(context.Background(), db, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "No active plans")
}

func TestListPlans(t *testing.T) {
	db := setupTestDB(t)
	catalog := plans.NewPostgresCatalog(db)

	_, err := catalog.UpsertPlan(context.Background(), &plans.Plan{
		Name:        "free",
		DisplayName: "Free",
		IsDefault:   true,
		IsActive:    true,
		Limits: map[plans.ResourceKind]int64{
			plans.ResourceConference: 1,
		},
	})
	require.NoError(t, err)

	_, err = catalog.UpsertPlan(context.Background(), &plans.Plan{
		Name:        "pro",
		DisplayName: "Pro",
		PriceCents:  4900,
		IsActive:    true,
		Limits: map[plans.ResourceKind]int64{
			plans.ResourceConference:  10,
			plans.ResourceParticipant: -1,
		},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	err = listPlans(context.Background(), db, &out)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "DISPLAY NAME")
	assert.Contains(t, output, "free")
	assert.Contains(t, output, "pro")
	assert.Contains(t, output, "$49.00")
	assert.Contains(t, output, "conference=10 participant=unlimited")
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{4900, "$49.00"},
		{4901, "$49.01"},
	}

	for _, tt := range tests {
		if got := formatPrice(tt.cents); got != tt.want {
			t.Errorf("formatPrice(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestFormatLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits map[plans.ResourceKind]int64
		want   string
	}{
		{
			name:   "empty",
			limits: nil,
			want:   "-",
		},
		{
			name: "sorted pairs",
			limits: map[plans.ResourceKind]int64{
				plans.ResourcePoll:       5,
				plans.ResourceConference: 2,
			},
			want: "conference=2 poll=5",
		},
		{
			name: "unlimited sentinel",
			limits: map[plans.ResourceKind]int64{
				plans.ResourceMeeting: -1,
			},
			want: "meeting=unlimited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLimits(tt.limits); got != tt.want {
				t.Errorf("formatLimits() = %q, want %q", got, tt.want)
			}
		})
	}
}
