package observer

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsObserver counts analysis events in its own prometheus registry
type MetricsObserver struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	cracks   *prometheus.CounterVec
	ratings  *prometheus.CounterVec
}

// NewMetricsObserver creates a metrics observer with a private registry
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rgd_analysis_events_total",
			Help: "Analysis mutations by event type.",
		}, []string{"event"}),
		cracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rgd_cracks_total",
			Help: "Accepted cracks by classified type.",
		}, []string{"type"}),
		ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rgd_ratings_total",
			Help: "Finalized analyses by ISO 23936-2 rating.",
		}, []string{"rating"}),
	}
	o.registry.MustRegister(o.events, o.cracks, o.ratings)
	return o
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(event AnalysisEvent) {
	o.events.WithLabelValues(string(event.EventType)).Inc()

	switch event.EventType {
	case CrackAdded:
		o.cracks.WithLabelValues(event.CrackType.String()).Inc()
	case AnalysisFinalized:
		if event.Rating != nil {
			o.ratings.WithLabelValues(strconv.Itoa(event.Rating.Rating)).Inc()
		}
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Registry exposes the collectors, mostly for tests
func (o *MetricsObserver) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the prometheus text format
func (o *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
