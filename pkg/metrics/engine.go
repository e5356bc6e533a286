package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics tracks order and return activity flowing through the
// pricing engine.
type EngineMetrics struct {
	ordersPlaced     prometheus.Counter
	ordersEdited     prometheus.Counter
	ordersCanceled   prometheus.Counter
	returnsCreated   prometheus.Counter
	returnsConfirmed prometheus.Counter
	degenerateTotals prometheus.Counter
	totalsMismatch   prometheus.Counter
	clawbackAmount   prometheus.Histogram
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	m := &EngineMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders successfully placed.",
		}),
		ordersEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_edited_total",
			Help: "Pending orders whose item lists were replaced.",
		}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_canceled_total",
			Help: "Pending orders canceled and refunded.",
		}),
		returnsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "returns_created_total",
			Help: "Order returns created with a frozen credit amount.",
		}),
		returnsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "returns_confirmed_total",
			Help: "Order returns confirmed and credited.",
		}),
		degenerateTotals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "degenerate_totals_total",
			Help: "Order totals that failed closed to zero on non-finite arithmetic.",
		}),
		totalsMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "totals_audit_mismatch_total",
			Help: "Stored order totals that no longer match their item lists.",
		}),
		clawbackAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "return_clawback_amount",
			Help:    "Clawback value per reconciled return, in currency units.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(
		m.ordersPlaced, m.ordersEdited, m.ordersCanceled,
		m.returnsCreated, m.returnsConfirmed,
		m.degenerateTotals, m.totalsMismatch, m.clawbackAmount,
	)
	return m
}

func (m *EngineMetrics) IncOrdersPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *EngineMetrics) IncOrdersEdited() {
	if m == nil || m.ordersEdited == nil {
		return
	}
	m.ordersEdited.Inc()
}

func (m *EngineMetrics) IncOrdersCanceled() {
	if m == nil || m.ordersCanceled == nil {
		return
	}
	m.ordersCanceled.Inc()
}

func (m *EngineMetrics) IncReturnsCreated() {
	if m == nil || m.returnsCreated == nil {
		return
	}
	m.returnsCreated.Inc()
}

func (m *EngineMetrics) IncReturnsConfirmed() {
	if m == nil || m.returnsConfirmed == nil {
		return
	}
	m.returnsConfirmed.Inc()
}

func (m *EngineMetrics) IncDegenerateTotals() {
	if m == nil || m.degenerateTotals == nil {
		return
	}
	m.degenerateTotals.Inc()
}

func (m *EngineMetrics) IncTotalsMismatch() {
	if m == nil || m.totalsMismatch == nil {
		return
	}
	m.totalsMismatch.Inc()
}

func (m *EngineMetrics) ObserveClawback(amount float64) {
	if m == nil || m.clawbackAmount == nil {
		return
	}
	if amount < 0 {
		return
	}
	m.clawbackAmount.Observe(amount)
}
