package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts queue activity for the /metrics endpoint.
type Metrics struct {
	enqueued     prometheus.Counter
	flushSuccess prometheus.Counter
	flushFailure prometheus.Counter
	dropped      prometheus.Counter
}

// NewMetrics registers the telemetry counters on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authbridge_events_enqueued_total",
			Help: "Total activity events accepted into the queue",
		}),
		flushSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authbridge_event_flush_success_total",
			Help: "Total batches written durably",
		}),
		flushFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authbridge_event_flush_failure_total",
			Help: "Total batch writes that failed and were requeued",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authbridge_events_dropped_total",
			Help: "Total events dropped after exhausting write attempts",
		}),
	}
	reg.MustRegister(m.enqueued, m.flushSuccess, m.flushFailure, m.dropped)
	return m
}
