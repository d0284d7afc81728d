package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eventlane/eventlane/pkg/observability"
)

const cacheMaxEntries = 256

// CachedCatalog layers an in-memory expirable LRU and an optional shared
// Redis tier in front of another Catalog. Plan definitions change rarely and
// are read on every resolution, so both tiers use short TTLs and upserts
// invalidate aggressively. Negative results are never cached.
type CachedCatalog struct {
	catalog Catalog
	redis   *redis.Client
	plans   *lru.LRU[string, *Plan]
	lists   *lru.LRU[string, []*Plan]
	ttl     map[string]time.Duration
	metrics *observability.Metrics
}

// NewCachedCatalog wraps a catalog with caching. The Redis client may be nil
// for a memory-only cache; metrics may be nil to skip instrumentation.
func NewCachedCatalog(catalog Catalog, redisClient *redis.Client, metrics *observability.Metrics) *CachedCatalog {
	ttl := map[string]time.Duration{
		"plan":    15 * time.Minute,
		"default": 5 * time.Minute,
		"list":    5 * time.Minute,
	}
	return &CachedCatalog{
		catalog: catalog,
		redis:   redisClient,
		plans:   lru.NewLRU[string, *Plan](cacheMaxEntries, nil, ttl["plan"]),
		lists:   lru.NewLRU[string, []*Plan](cacheMaxEntries, nil, ttl["list"]),
		ttl:     ttl,
		metrics: metrics,
	}
}

// UpsertPlan writes through to the underlying catalog and invalidates both
// cache tiers. The in-memory tier is purged entirely because a default
// change also stales sibling entries; in Redis only the known keys are
// deleted and stale siblings age out via TTL.
func (c *CachedCatalog) UpsertPlan(ctx context.Context, plan *Plan) (*Plan, error) {
	saved, err := c.catalog.UpsertPlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	c.plans.Purge()
	c.lists.Purge()

	if c.redis != nil {
		c.redis.Del(ctx,
			fmt.Sprintf("plan:id:%d", saved.ID),
			fmt.Sprintf("plan:name:%s", saved.Name),
			"plan:default",
			"plans:active",
		)
	}

	return saved, nil
}

// GetPlan retrieves a plan by id with caching
func (c *CachedCatalog) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	key := fmt.Sprintf("plan:id:%d", id)

	if plan, ok := c.getCachedPlan(ctx, key, "id"); ok {
		return plan, nil
	}

	plan, err := c.catalog.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	c.storePlan(ctx, key, plan, c.ttl["plan"])
	return plan, nil
}

// GetPlanByName retrieves a plan by unique name with caching
func (c *CachedCatalog) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	key := fmt.Sprintf("plan:name:%s", name)

	if plan, ok := c.getCachedPlan(ctx, key, "name"); ok {
		return plan, nil
	}

	plan, err := c.catalog.GetPlanByName(ctx, name)
	if err != nil {
		return nil, err
	}

	c.storePlan(ctx, key, plan, c.ttl["plan"])
	return plan, nil
}

// GetDefaultPlan retrieves the default plan with caching. ErrNoDefaultPlan is
// not cached, so a missing default stays a cheap catalog read until one is
// configured.
func (c *CachedCatalog) GetDefaultPlan(ctx context.Context) (*Plan, error) {
	key := "plan:default"

	if plan, ok := c.getCachedPlan(ctx, key, "default"); ok {
		return plan, nil
	}

	plan, err := c.catalog.GetDefaultPlan(ctx)
	if err != nil {
		return nil, err
	}

	c.storePlan(ctx, key, plan, c.ttl["default"])
	return plan, nil
}

// ListActivePlans retrieves active plans with caching
func (c *CachedCatalog) ListActivePlans(ctx context.Context) ([]*Plan, error) {
	key := "plans:active"

	if cached, ok := c.lists.Get(key); ok {
		c.recordHit("memory", "list")
		return cached, nil
	}

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			var result []*Plan
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				c.recordHit("redis", "list")
				c.lists.Add(key, result)
				return result, nil
			}
		}
	}

	c.recordMiss("list")
	result, err := c.catalog.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	c.lists.Add(key, result)
	if c.redis != nil {
		if data, err := json.Marshal(result); err == nil {
			c.redis.Set(ctx, key, data, c.ttl["list"])
		}
	}
	return result, nil
}

func (c *CachedCatalog) getCachedPlan(ctx context.Context, key, keyType string) (*Plan, bool) {
	if plan, ok := c.plans.Get(key); ok {
		c.recordHit("memory", keyType)
		return plan, true
	}

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			var plan Plan
			if err := json.Unmarshal([]byte(cached), &plan); err == nil {
				c.recordHit("redis", keyType)
				c.plans.Add(key, &plan)
				return &plan, true
			}
		}
	}

	c.recordMiss(keyType)
	return nil, false
}

func (c *CachedCatalog) storePlan(ctx context.Context, key string, plan *Plan, ttl time.Duration) {
	c.plans.Add(key, plan)
	if c.redis != nil {
		if data, err := json.Marshal(plan); err == nil {
			c.redis.Set(ctx, key, data, ttl)
		}
	}
}

func (c *CachedCatalog) recordHit(tier, keyType string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier, keyType).Inc()
	}
}

func (c *CachedCatalog) recordMiss(keyType string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(keyType).Inc()
	}
}
