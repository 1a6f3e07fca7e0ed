// Package metrics exposes Prometheus counters for the booking flow.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics counts inbound traffic, drops, and confirmed bookings.
type BotMetrics struct {
	inboundTotal  *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	bookingsTotal prometheus.Counter
}

// NewBotMetrics registers the counters on reg (DefaultRegisterer when nil).
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terminbot",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound messages by kind (text or button)",
		}, []string{"kind"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terminbot",
			Subsystem: "conversation",
			Name:      "dropped_total",
			Help:      "Total inbound messages dropped before processing",
		}, []string{"reason"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terminbot",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Total confirmed bookings",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.droppedTotal, m.bookingsTotal)
	return m
}

func (m *BotMetrics) ObserveInbound(kind string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind).Inc()
}

func (m *BotMetrics) ObserveDrop(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
}

func (m *BotMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}
