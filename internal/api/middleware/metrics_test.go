package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/statuswatch/statuswatch/internal/api/middleware"
)

func newTestMetrics(t *testing.T) (*middleware.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := middleware.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func requestTotals(t *testing.T, reader *sdkmetric.ManualReader) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "http.server.request.total" {
				return m.Data.(metricdata.Sum[int64]).DataPoints
			}
		}
	}
	return nil
}

func TestMetrics_Middleware_Success(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test/path", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	points := requestTotals(t, reader)
	require.Len(t, points, 1)
	status, _ := points[0].Attributes.Value(attribute.Key("http.response.status_code"))
	assert.Equal(t, "200", status.AsString())
	isErr, _ := points[0].Attributes.Value(attribute.Key("error"))
	assert.False(t, isErr.AsBool())
}

func TestMetrics_Middleware_Error(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	points := requestTotals(t, reader)
	require.Len(t, points, 1)
	isErr, _ := points[0].Attributes.Value(attribute.Key("error"))
	assert.True(t, isErr.AsBool())
}

func TestMetrics_Middleware_RoutePattern(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/v1/status/{provider}", func(w http.ResponseWriter, _ *http.Request) {})

	for _, p := range []string{"openai", "anthropic", "mistral"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status/"+p, http.NoBody))
	}

	points := requestTotals(t, reader)
	require.Len(t, points, 1, "one series for all providers")
	assert.Equal(t, int64(3), points[0].Value)
	route, _ := points[0].Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/v1/status/{provider}", route.AsString())
}
