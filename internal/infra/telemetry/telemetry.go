package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Vardandatasciences/riskavaire-access/internal/infra/config"
)

// Provider represents a telemetry provider handle. HTTP request metrics live
// in the middleware collectors; the provider only owns engine-level counters.
type Provider struct {
	grantWrites  *prometheus.CounterVec
	bulkOutcomes *prometheus.CounterVec
}

// Attach configures telemetry collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	return newProvider(prometheus.DefaultRegisterer), nil
}

func newProvider(reg prometheus.Registerer) *Provider {
	factory := promauto.With(reg)

	grantWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Name:      "grant_writes_total",
		Help:      "Permission grant writes by result",
	}, []string{"result"})

	bulkOutcomes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Name:      "bulk_outcomes_total",
		Help:      "Bulk update per-user outcomes by status",
	}, []string{"status"})

	return &Provider{
		grantWrites:  grantWrites,
		bulkOutcomes: bulkOutcomes,
	}
}

// ObserveGrantWrite records the result of one grant store write.
func (p *Provider) ObserveGrantWrite(result string) {
	if p == nil {
		return
	}
	p.grantWrites.WithLabelValues(result).Inc()
}

// ObserveBulkOutcome records one per-user bulk outcome.
func (p *Provider) ObserveBulkOutcome(status string) {
	if p == nil {
		return
	}
	p.bulkOutcomes.WithLabelValues(status).Inc()
}
