// Package observability aggregates the Prometheus metrics of the real-time
// core. Everything is registered on a caller-supplied registry so tests can
// run isolated.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OpenConnections    prometheus.Gauge
	EventsIn           *prometheus.CounterVec
	EventsOut          *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	DroppedDeliveries  prometheus.Counter
	AdmissionRefusals  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OpenConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "peertalk_open_connections",
			Help: "Live authenticated WebSocket connections.",
		}),
		EventsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "peertalk_events_in_total",
			Help: "Inbound events by event name.",
		}, []string{"event"}),
		EventsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "peertalk_events_out_total",
			Help: "Outbound events enqueued, by event name.",
		}, []string{"event"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "peertalk_validation_failures_total",
			Help: "Inbound events rejected by schema validation.",
		}),
		DroppedDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "peertalk_dropped_deliveries_total",
			Help: "Deliveries dropped because a connection's send buffer was full.",
		}),
		AdmissionRefusals: factory.NewCounter(prometheus.CounterOpts{
			Name: "peertalk_admission_refusals_total",
			Help: "Connection attempts refused at the handshake.",
		}),
	}
}
