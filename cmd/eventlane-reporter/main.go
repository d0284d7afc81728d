package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/eventlane/eventlane/pkg/async"
	"github.com/eventlane/eventlane/pkg/config"
	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/entitlement"
	"github.com/eventlane/eventlane/pkg/observability"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/reporter"
	"github.com/eventlane/eventlane/pkg/storage"
	"github.com/eventlane/eventlane/pkg/subscriptions"
	"github.com/eventlane/eventlane/pkg/usage"
)

// collectTimeout bounds one reporting cycle. Cycles that outlive it are
// cancelled; the next tick starts fresh.
const collectTimeout = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("eventlane-reporter: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting eventlane usage reporter")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(cfg.Database)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}

	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(cfg.Cache.RedisURL)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	var providers *observability.OTelProviders
	if cfg.Observability.OTelEnabled {
		otelCfg := observability.DefaultOTelConfig()
		otelCfg.Endpoint = cfg.Observability.OTelEndpoint
		otelCfg.ServiceName = cfg.Observability.OTelServiceName
		otelCfg.ServiceVersion = cfg.Observability.OTelServiceVersion
		otelCfg.Insecure = cfg.Observability.OTelInsecure

		providers, err = observability.InitOTel(ctx, otelCfg)
		if err != nil {
			fatal(logger, "failed to initialize OpenTelemetry", err)
		}
		logger.WithField("endpoint", otelCfg.Endpoint).Info("OpenTelemetry export enabled")
	}

	// Seed upserts go through the cached catalog so the shared cache tier is
	// invalidated for every process reading plans, not just this one.
	catalog := plans.NewCachedCatalog(plans.NewPostgresCatalog(db), redisClient, metrics)

	if cfg.Seed.Path != "" {
		applySeed(ctx, logger, catalog, cfg.Seed.Path)
	}

	var watcher *plans.SeedWatcher
	if cfg.Seed.Watch {
		watcher, err = plans.NewSeedWatcher(cfg.Seed.Path, catalog, logger)
		if err != nil {
			fatal(logger, "failed to create seed watcher", err)
		}
		if err := watcher.Start(ctx); err != nil {
			fatal(logger, "failed to start seed watcher", err)
		}
		logger.WithField("path", cfg.Seed.Path).Info("seed watcher started")
	}

	// The sampling engine gets no metrics handle: reporter-driven
	// resolutions would otherwise pollute the decision counters.
	engine := entitlement.NewEngine(
		subscriptions.NewPostgresStore(db),
		catalog,
		directory.NewPostgresDirectory(db),
		usage.NewPostgresCounters(db),
		logger, nil,
	)

	collector := reporter.NewCollector(db, engine, logger, metrics, cfg.Reporter.Concurrency)

	c := cron.New()
	_, err = c.AddFunc(cfg.Reporter.Schedule, func() {
		async.SafeGo(ctx, collectTimeout, "usage report", collector.Collect)
	})
	if err != nil {
		fatal(logger, "failed to schedule usage reports", err)
	}
	c.Start()
	logger.WithField("schedule", cfg.Reporter.Schedule).Info("usage reports scheduled")

	// Prime the gauges instead of waiting out the first tick.
	async.SafeGo(ctx, collectTimeout, "usage report", collector.Collect)

	router := mux.NewRouter()
	observability.RegisterHealthRoutes(router, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(router, registry)
	}

	var handler http.Handler = router
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(router, "eventlane-reporter")
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.OpsPort),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "ops server failed", err)
		}
	}()

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	sm.Register("database", func(context.Context) error { return db.Close() })
	if redisClient != nil {
		sm.Register("redis", func(context.Context) error { return redisClient.Close() })
	}
	if providers != nil {
		sm.Register("otel", providers.Shutdown)
	}
	sm.Register("background tasks", func(context.Context) error { cancel(); return nil })
	if watcher != nil {
		sm.Register("seed watcher", func(context.Context) error { return watcher.Close() })
	}
	sm.Register("cron", func(shutdownCtx context.Context) error {
		stopped := c.Stop()
		select {
		case <-stopped.Done():
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	sm.Register("ops server", server.Shutdown)

	sm.Wait()
}

// applySeed loads and upserts the plan seed once at startup. Failures are
// logged and leave the catalog as it was; the daemon still starts.
func applySeed(ctx context.Context, logger *observability.Logger, catalog plans.Catalog, path string) {
	doc, err := plans.LoadSeed(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Error("failed to load plan seed")
		return
	}

	n, err := plans.ApplySeed(ctx, catalog, doc)
	if err != nil {
		logger.WithError(err).WithField("path", path).Error("failed to apply plan seed")
		return
	}

	logger.WithFields(map[string]interface{}{
		"plans": n,
		"path":  path,
	}).Info("plan seed applied")
}

func fatal(logger *observability.Logger, message string, err error) {
	logger.WithError(err).Error(message)
	os.Exit(1)
}
