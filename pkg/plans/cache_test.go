package plans

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog counts calls so tests can observe which tier served a read
type fakeCatalog struct {
	byID        map[int64]*Plan
	byName      map[string]*Plan
	defaultPlan *Plan
	active      []*Plan
	calls       map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		byID:   make(map[int64]*Plan),
		byName: make(map[string]*Plan),
		calls:  make(map[string]int),
	}
}

func (f *fakeCatalog) add(plan *Plan) {
	f.byID[plan.ID] = plan
	f.byName[plan.Name] = plan
	if plan.IsDefault {
		f.defaultPlan = plan
	}
	f.active = append(f.active, plan)
}

func (f *fakeCatalog) UpsertPlan(ctx context.Context, plan *Plan) (*Plan, error) {
	f.calls["upsert"]++
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	f.add(plan)
	return plan, nil
}

func (f *fakeCatalog) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	f.calls["get"]++
	plan, ok := f.byID[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (f *fakeCatalog) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	f.calls["getByName"]++
	plan, ok := f.byName[name]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (f *fakeCatalog) GetDefaultPlan(ctx context.Context) (*Plan, error) {
	f.calls["getDefault"]++
	if f.defaultPlan == nil {
		return nil, ErrNoDefaultPlan
	}
	return f.defaultPlan, nil
}

func (f *fakeCatalog) ListActivePlans(ctx context.Context) ([]*Plan, error) {
	f.calls["list"]++
	return f.active, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCachedCatalog_MemoryServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCatalog()
	fake.add(&Plan{ID: 1, Name: "pro", IsActive: true})

	cached := NewCachedCatalog(fake, nil, nil)

	for i := 0; i < 3; i++ {
		plan, err := cached.GetPlanByName(ctx, "pro")
		require.NoError(t, err)
		assert.Equal(t, int64(1), plan.ID)
	}

	assert.Equal(t, 1, fake.calls["getByName"])
}

func TestCachedCatalog_RedisServesColdInstance(t *testing.T) {
	ctx := context.Background()
	redisClient := testRedis(t)

	first := newFakeCatalog()
	first.add(&Plan{ID: 1, Name: "pro", IsActive: true})
	warm := NewCachedCatalog(first, redisClient, nil)

	_, err := warm.GetPlanByName(ctx, "pro")
	require.NoError(t, err)

	// A second instance with an empty memory tier and an empty catalog must
	// be served entirely from the shared Redis tier.
	cold := NewCachedCatalog(newFakeCatalog(), redisClient, nil)
	plan, err := cold.GetPlanByName(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.ID)
}

func TestCachedCatalog_UpsertInvalidates(t *testing.T) {
	ctx := context.Background()
	redisClient := testRedis(t)
	fake := newFakeCatalog()
	fake.add(&Plan{ID: 1, Name: "pro", DisplayName: "Pro", IsActive: true})

	cached := NewCachedCatalog(fake, redisClient, nil)

	_, err := cached.GetPlanByName(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls["getByName"])

	_, err = cached.UpsertPlan(ctx, &Plan{ID: 1, Name: "pro", DisplayName: "Pro v2", IsActive: true})
	require.NoError(t, err)

	plan, err := cached.GetPlanByName(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro v2", plan.DisplayName)
	assert.Equal(t, 2, fake.calls["getByName"])
}

func TestCachedCatalog_MissingDefaultNotCached(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCatalog()
	cached := NewCachedCatalog(fake, testRedis(t), nil)

	_, err := cached.GetDefaultPlan(ctx)
	assert.ErrorIs(t, err, ErrNoDefaultPlan)
	_, err = cached.GetDefaultPlan(ctx)
	assert.ErrorIs(t, err, ErrNoDefaultPlan)

	// Negative results hit the catalog every time
	assert.Equal(t, 2, fake.calls["getDefault"])

	// Once a default appears it is returned and cached
	fake.add(&Plan{ID: 1, Name: "free", IsDefault: true, IsActive: true})
	plan, err := cached.GetDefaultPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "free", plan.Name)

	_, err = cached.GetDefaultPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls["getDefault"])
}

func TestCachedCatalog_ListActivePlans(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCatalog()
	fake.add(&Plan{ID: 1, Name: "free", IsActive: true})
	fake.add(&Plan{ID: 2, Name: "pro", IsActive: true})

	cached := NewCachedCatalog(fake, testRedis(t), nil)

	for i := 0; i < 3; i++ {
		result, err := cached.ListActivePlans(ctx)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	}

	assert.Equal(t, 1, fake.calls["list"])
}

func TestCachedCatalog_NotFoundNotCached(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCatalog()
	cached := NewCachedCatalog(fake, nil, nil)

	_, err := cached.GetPlan(ctx, 42)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = cached.GetPlan(ctx, 42)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	assert.Equal(t, 2, fake.calls["get"])
}
