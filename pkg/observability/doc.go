// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry export for the entitlement services.
//
// # Overview
//
// This package centralizes observability infrastructure. The engine and the
// storage layers log through Logger, count resolutions, quota checks and
// cache traffic through Metrics, and the reporter daemon exposes the health
// and scrape endpoints registered here.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("plan", plan.Name).Info("Plan seeded")
//
// Context-aware logging:
//
//	ctx = observability.WithPrincipal(ctx, "conference", 42)
//	observability.FromContext(ctx).Warn("Quota denied")
//
// # Prometheus Metrics
//
// Initialize metrics on a private registry:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ResolutionsTotal.WithLabelValues("conference", "direct").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	if providers != nil {
//		defer providers.Shutdown(context.Background())
//	}
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/entitlement: resolution and quota check instrumentation
//   - pkg/reporter: business gauges published on a schedule
package observability
