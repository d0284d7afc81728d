package observability

import (
	"database/sql"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Plan resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec

	// Quota check metrics
	ChecksTotal  *prometheus.CounterVec
	DenialsTotal *prometheus.CounterVec

	// Feature gate metrics
	FeatureLookupsTotal *prometheus.CounterVec

	// Plan catalog cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Storage metrics
	StorageErrorsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics (published by the usage reporter)
	PlansActive           prometheus.Gauge
	SubscriptionsByStatus *prometheus.GaugeVec
	SubscriptionsByPlan   *prometheus.GaugeVec
	SubscriptionsBySource *prometheus.GaugeVec
	ResourceTotals        *prometheus.GaugeVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Plan resolution metrics
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_resolutions_total",
				Help: "Total number of plan resolutions",
			},
			[]string{"principal_kind", "source"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventlane_resolution_duration_seconds",
				Help:    "Plan resolution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"principal_kind"},
		),

		// Quota check metrics
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_quota_checks_total",
				Help: "Total number of quota checks",
			},
			[]string{"resource", "allowed"},
		),
		DenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_quota_denials_total",
				Help: "Total number of quota denials by reason",
			},
			[]string{"resource", "reason"},
		),

		// Feature gate metrics
		FeatureLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_feature_lookups_total",
				Help: "Total number of feature gate lookups",
			},
			[]string{"feature", "enabled"},
		),

		// Plan catalog cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_plan_cache_hits_total",
				Help: "Total number of plan cache hits",
			},
			[]string{"tier", "key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_plan_cache_misses_total",
				Help: "Total number of plan cache misses",
			},
			[]string{"key_type"},
		),

		// Storage metrics
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlane_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventlane_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventlane_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Business metrics
		PlansActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventlane_plans_active",
				Help: "Number of active plans in the catalog",
			},
		),
		SubscriptionsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventlane_subscriptions_total",
				Help: "Number of subscriptions by status",
			},
			[]string{"status"},
		),
		SubscriptionsByPlan: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventlane_subscriptions_by_plan",
				Help: "Number of subscriptions by plan and status",
			},
			[]string{"plan", "status"},
		),
		SubscriptionsBySource: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventlane_subscriptions_by_source",
				Help: "Current subscription principals by resolved plan and resolution source",
			},
			[]string{"plan", "source"},
		),
		ResourceTotals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventlane_resources_total",
				Help: "Total number of stored resources by kind",
			},
			[]string{"resource"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ChecksTotal,
		m.DenialsTotal,
		m.FeatureLookupsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StorageErrorsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.PlansActive,
		m.SubscriptionsByStatus,
		m.SubscriptionsByPlan,
		m.SubscriptionsBySource,
		m.ResourceTotals,
	)

	return m
}

// UpdateDBStats publishes connection pool statistics
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
