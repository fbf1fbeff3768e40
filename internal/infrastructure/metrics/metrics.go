package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ports.LedgerMetrics = (*Collector)(nil)

const namespace = "reco"

// Collector agrupa las métricas del servicio sobre un registro propio.
type Collector struct {
	registry  *prometheus.Registry
	entries   *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	accounts  *prometheus.CounterVec
	requests  *prometheus.HistogramVec
}

// New registra los contadores del libro, el histograma HTTP y los colectores de runtime.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Movimientos de stock y asientos registrados.",
		}, []string{"kind", "type"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_conflicts_total",
			Help:      "Escrituras rechazadas por conflicto de concurrencia.",
		}, []string{"kind"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Cuentas de stock y libros creados.",
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	c.registry.MustRegister(
		c.entries,
		c.conflicts,
		c.accounts,
		c.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// EntryRecorded cuenta un movimiento o asiento confirmado.
func (c *Collector) EntryRecorded(kind, entryType string) {
	c.entries.WithLabelValues(kind, entryType).Inc()
}

// ConcurrencyConflict cuenta una escritura rechazada por ErrConcurrency.
func (c *Collector) ConcurrencyConflict(kind string) {
	c.conflicts.WithLabelValues(kind).Inc()
}

// AccountCreated cuenta una cuenta o libro creado.
func (c *Collector) AccountCreated(kind string) {
	c.accounts.WithLabelValues(kind).Inc()
}

// ObserveRequest registra la latencia de una petición HTTP por ruta (patrón, no path concreto).
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry acceso al registro (tests).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
