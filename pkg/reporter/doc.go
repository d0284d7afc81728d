// Package reporter publishes catalog, subscription and resource totals as
// Prometheus gauges.
//
// # Overview
//
// The collector runs on a cron schedule inside the reporter daemon. Each
// cycle samples the database and updates the business gauges exposed on the
// ops endpoint:
//   - Active plans in the catalog
//   - Subscriptions by status and by plan
//   - Stored resources by kind (conferences, participants, polls, questions,
//     meetings)
//   - Connection pool statistics
//
// Resource totals are read through the same counters the quota checks use,
// so dashboards and enforcement always agree on what was counted.
//
// # Usage Example
//
// One collection cycle:
//
//	collector := reporter.NewCollector(db, logger, metrics, 4)
//	if err := collector.Collect(ctx); err != nil {
//		logger.WithError(err).Error("usage report failed")
//	}
//
// A failed cycle leaves the previous gauge values in place; the next
// scheduled run replaces them.
//
// # Related Packages
//
//   - pkg/usage: Counters the collector reads through
//   - pkg/observability: Gauge definitions and the /metrics endpoint
package reporter
