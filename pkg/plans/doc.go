// Package plans provides the plan catalog: named bundles of usage ceilings and
// feature flags, persisted in PostgreSQL with optional Redis and in-memory caching.
//
// # Overview
//
// A Plan couples resource limits (how many conferences, participants, polls,
// questions, and meetings a principal may create) with feature flags (whether
// polls, questions, or meetings are available at all). Limits use a reserved
// sentinel value of -1 meaning "no ceiling"; the Limit type converts that
// convention into an explicit two-variant value at the read boundary so callers
// never compare against the raw sentinel.
//
// # Default Plan Invariant
//
// Among active plans, at most one may have IsDefault set. UpsertPlan enforces
// this inside a single transaction: setting a new default clears the previous
// one atomically, and a partial unique index backs the invariant in storage.
//
// # Usage
//
//	catalog := plans.NewPostgresCatalog(db)
//	plan, err := catalog.GetDefaultPlan(ctx)
//	if err == plans.ErrNoDefaultPlan {
//		// no default configured; resolver falls back to the restricted plan
//	}
//
//	limit := plan.LimitFor(plans.ResourcePoll)
//	if limit.Allows(currentCount) {
//		// proceed with creation
//	}
//
// # Caching
//
// NewCachedCatalog wraps any Catalog with an in-memory expirable LRU in front
// of a shared Redis tier. Plan upserts invalidate both tiers. Either tier may
// be absent; the catalog degrades to the layer below.
//
// # Seeding
//
// LoadSeed applies a YAML document of plan definitions, used at install time
// and by the optional SeedWatcher which re-applies the file whenever it
// changes on disk.
//
// # Related Packages
//
//   - pkg/entitlement: resolves effective plans and evaluates quotas
//   - pkg/subscriptions: binds principals to plans
//   - pkg/storage: connection management and schema migrations
package plans
