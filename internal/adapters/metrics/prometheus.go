// Package metrics records engine activity as Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/plp/internal/ports/secondary"
)

const namespace = "plp"

// Recorder implements secondary.EngineMetrics.
type Recorder struct {
	events   *prometheus.CounterVec
	writes   *prometheus.CounterVec
	retries  *prometheus.CounterVec
	parked   *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewRecorder registers the engine counters with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_handled_total",
			Help:      "Inbound lifecycle events handled, by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_writes_total",
			Help:      "Schedule versions written, by kind and resulting status.",
		}, []string{"kind", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_retries_total",
			Help:      "Event handling attempts repeated, by reason.",
		}, []string{"reason"}),
		parked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parked_total",
			Help:      "Inbound messages parked for follow-up, by category.",
		}, []string{"category"}),
		gatherer: reg,
	}
	reg.MustRegister(r.events, r.writes, r.retries, r.parked,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) EventHandled(eventType, outcome string) {
	r.events.WithLabelValues(eventType, outcome).Inc()
}

func (r *Recorder) ScheduleWritten(kind, status string) {
	r.writes.WithLabelValues(kind, status).Inc()
}

func (r *Recorder) Retried(reason string) {
	r.retries.WithLabelValues(reason).Inc()
}

func (r *Recorder) Parked(category string) {
	r.parked.WithLabelValues(category).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Nop implements secondary.EngineMetrics and records nothing.
type Nop struct{}

func (Nop) EventHandled(string, string)    {}
func (Nop) ScheduleWritten(string, string) {}
func (Nop) Retried(string)                 {}
func (Nop) Parked(string)                  {}

var (
	_ secondary.EngineMetrics = (*Recorder)(nil)
	_ secondary.EngineMetrics = Nop{}
)
