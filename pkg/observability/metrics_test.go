package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_CountersIncrement(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.ResolutionsTotal.WithLabelValues("conference", "direct").Inc()
	metrics.ResolutionsTotal.WithLabelValues("conference", "direct").Inc()
	metrics.ChecksTotal.WithLabelValues("meetings", "false").Inc()
	metrics.DenialsTotal.WithLabelValues("meetings", "limit_exceeded").Inc()
	metrics.CacheHitsTotal.WithLabelValues("memory", "default").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(
		metrics.ResolutionsTotal.WithLabelValues("conference", "direct")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.ChecksTotal.WithLabelValues("meetings", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.DenialsTotal.WithLabelValues("meetings", "limit_exceeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.CacheHitsTotal.WithLabelValues("memory", "default")))
}

func TestNewMetrics_Gauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.PlansActive.Set(4)
	metrics.SubscriptionsByStatus.WithLabelValues("active").Set(12)
	metrics.ResourceTotals.WithLabelValues("polls").Set(88)

	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.PlansActive))
	assert.Equal(t, float64(12), testutil.ToFloat64(
		metrics.SubscriptionsByStatus.WithLabelValues("active")))
	assert.Equal(t, float64(88), testutil.ToFloat64(
		metrics.ResourceTotals.WithLabelValues("polls")))
}

func TestUpdateDBStats(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.UpdateDBStats(sql.DBStats{InUse: 3, Idle: 5})

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.DBConnectionsIdle))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.ResolutionsTotal.WithLabelValues("user", "default").Inc()

	router := mux.NewRouter()
	RegisterMetricsEndpoint(router, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventlane_resolutions_total")
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	assert.Panics(t, func() {
		NewMetrics(registry)
	})
}
