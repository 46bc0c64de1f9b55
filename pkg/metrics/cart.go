package metrics

import (
	"github.com/doneduardo/storefront/pkg/cart"
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics exports cart activity. A nil *CartMetrics is a no-op.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	lines           prometheus.Gauge
	items           prometheus.Gauge
	total           prometheus.Gauge
	persistFailures prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart changes by event.",
	}, []string{"event"})
	lines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_lines",
		Help: "Distinct products currently in the cart.",
	})
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_items",
		Help: "Sum of quantities currently in the cart.",
	})
	total := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_total",
		Help: "Current cart total in store currency.",
	})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Failed writes of the cart slot.",
	})
	reg.MustRegister(mutations, lines, items, total, persistFailures)
	return &CartMetrics{
		mutations:       mutations,
		lines:           lines,
		items:           items,
		total:           total,
		persistFailures: persistFailures,
	}
}

// Observe is a cart.Subscriber.
func (m *CartMetrics) Observe(snap cart.Snapshot) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(snap.Event.String())).Inc()
	m.Set(snap)
}

// Set updates the gauges without counting a mutation, used after hydration.
func (m *CartMetrics) Set(snap cart.Snapshot) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.Set(float64(len(snap.Lines)))
	m.items.Set(float64(snap.ItemCount))
	m.total.Set(snap.Total.InexactFloat64())
}

// IncPersistFailure can be passed to cart.WithPersistErrorHandler.
func (m *CartMetrics) IncPersistFailure(error) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
