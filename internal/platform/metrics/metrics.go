package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors shared by the catalog process.
type Metrics struct {
	registry      *prometheus.Registry
	AuthDecisions *prometheus.CounterVec
	CatalogOps    *prometheus.CounterVec
}

// New creates a private registry with process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		AuthDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anilist_auth_decisions_total",
			Help: "Auth gate outcomes by decision reason.",
		}, []string{"outcome"}),
		CatalogOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anilist_catalog_operations_total",
			Help: "Catalog operations by kind, entity, operation and result.",
		}, []string{"kind", "entity", "op", "result"}),
	}
}

// ObserveAuth counts one gate outcome. Safe on a nil receiver.
func (m *Metrics) ObserveAuth(outcome string) {
	if m == nil {
		return
	}
	m.AuthDecisions.WithLabelValues(outcome).Inc()
}

// ObserveCatalog counts one catalog operation. Safe on a nil receiver.
func (m *Metrics) ObserveCatalog(kind, entity, op, result string) {
	if m == nil {
		return
	}
	m.CatalogOps.WithLabelValues(kind, entity, op, result).Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
