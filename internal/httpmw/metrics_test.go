package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/go-chi/chi/v5"

	"github.com/hearthkeep/hub/internal/metrics"
)

func TestMetricsMiddlewareRecordsRoutePatternNotRawPath(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry("hubd-test", registry)

	r := chi.NewRouter()
	r.Use(Metrics("hubd-test", m))
	r.Get("/monitors/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/monitors/host", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	families, err := registry.Gather()
	require.NoError(t, err)

	var found *dto.Metric
	for _, fam := range families {
		if fam.GetName() != "hub_http_requests_total" {
			continue
		}
		for _, metric := range fam.Metric {
			for _, label := range metric.Label {
				if label.GetName() == "path" && label.GetValue() == "/monitors/{id}" {
					found = metric
				}
			}
		}
	}
	require.NotNil(t, found, "expected a counter labeled with the route pattern, not the raw path")
	require.Equal(t, float64(1), found.GetCounter().GetValue())
}
