package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeterProvider_ExposesPrometheusMetrics(t *testing.T) {
	// given
	mp, handler, err := NewMeterProvider("product-service-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := mp.Meter("test").Int64Counter("products_created")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// when
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "products_created_total")
}

func TestNewTracerProvider(t *testing.T) {
	cfg := config.TelemetryConfig{Traces: config.TracesConfig{
		Enabled: true,
		OtlpHttp: config.OtlpHttpConfig{
			Endpoint: "localhost:4318",
			Insecure: true,
			Timeout:  time.Second,
		},
	}}

	tp, err := NewTracerProvider(context.Background(), "product-service-test", cfg)

	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
