package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/middleware"
)

func TestProviderCoexistsWithHTTPMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	provider := newProvider(registry)

	if _, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry}); err != nil {
		t.Fatalf("http metrics failed to register alongside provider collectors: %v", err)
	}

	provider.ObserveGrantWrite("success")
	provider.ObserveGrantWrite("store_conflict")
	provider.ObserveBulkOutcome("timeout")

	if got := testutil.ToFloat64(provider.grantWrites.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 success write, got %f", got)
	}
	if got := testutil.ToFloat64(provider.grantWrites.WithLabelValues("store_conflict")); got != 1 {
		t.Fatalf("expected 1 conflict write, got %f", got)
	}
	if got := testutil.ToFloat64(provider.bulkOutcomes.WithLabelValues("timeout")); got != 1 {
		t.Fatalf("expected 1 timeout outcome, got %f", got)
	}
}

func TestObserversTolerateNilProvider(t *testing.T) {
	var provider *Provider
	provider.ObserveGrantWrite("success")
	provider.ObserveBulkOutcome("failed")
}
