package plans

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
version: 1
plans:
  - name: free
    display_name: Free
    is_default: true
    limits:
      conference: 1
      meeting: 5
      poll: 10
    features:
      pollsEnabled: true
  - name: pro
    display_name: Pro
    price_cents: 4900
    limits:
      conference: 10
      meeting: -1
    features:
      pollsEnabled: true
      meetingsEnabled: true
  - name: legacy
    is_active: false
`

func TestParseSeed(t *testing.T) {
	doc, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, doc.Plans, 3)

	free := doc.Plans[0]
	assert.Equal(t, "free", free.Name)
	assert.True(t, free.IsDefault)
	assert.Equal(t, int64(10), free.Limits["poll"])
	assert.True(t, free.Features["pollsEnabled"])
}

func TestParseSeed_BadVersion(t *testing.T) {
	_, err := ParseSeed([]byte("version: 7\nplans: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported seed document version")
}

func TestParseSeed_MultipleDefaultsRejected(t *testing.T) {
	_, err := ParseSeed([]byte(`
version: 1
plans:
  - name: free
    is_default: true
  - name: pro
    is_default: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one")
}

func TestParseSeed_Malformed(t *testing.T) {
	_, err := ParseSeed([]byte("plans: {not a list}"))
	assert.Error(t, err)
}

func TestSeedPlan_Plan(t *testing.T) {
	doc, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	pro := doc.Plans[1].Plan()
	assert.Equal(t, "pro", pro.Name)
	assert.Equal(t, int64(4900), pro.PriceCents)
	assert.True(t, pro.IsActive)
	assert.True(t, pro.LimitFor(ResourceMeeting).IsUnlimited())
	assert.Equal(t, Bounded(10), pro.LimitFor(ResourceConference))

	// Display name falls back to the name, is_active: false is honored
	legacy := doc.Plans[2].Plan()
	assert.Equal(t, "legacy", legacy.DisplayName)
	assert.False(t, legacy.IsActive)
}

func TestApplySeed(t *testing.T) {
	doc, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	fake := newFakeCatalog()
	applied, err := ApplySeed(context.Background(), fake, doc)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, 3, fake.calls["upsert"])
	assert.Equal(t, "free", fake.defaultPlan.Name)
}

func TestApplySeed_InvalidPlanAborts(t *testing.T) {
	doc := &SeedDocument{
		Version: 1,
		Plans: []SeedPlan{
			{Name: "ok"},
			{Name: "bad", Limits: map[string]int64{"webinar": 3}},
			{Name: "never-reached"},
		},
	}

	applied, err := ApplySeed(context.Background(), newFakeCatalog(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to seed plan "bad"`)
	assert.Equal(t, 1, applied)
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	doc, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, doc.Plans, 3)

	_, err = LoadSeed(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
