package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/api/v1/sales/:id", okHandler)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	perform(r, http.MethodGet, "/api/v1/sales/a", nil, nil)
	perform(r, http.MethodGet, "/api/v1/sales/b", nil, nil)
	perform(r, http.MethodGet, "/nowhere", nil, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "/api/v1/sales/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(metrics.inFlight))

	w := perform(r, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MetricRequestsTotal)
	assert.Contains(t, w.Body.String(), MetricRequestDuration+"_bucket")
	assert.Contains(t, w.Body.String(), `route="/api/v1/sales/:id"`)
}

func TestNewHTTPMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	_, err = NewHTTPMetrics(reg)
	assert.Error(t, err)
}
