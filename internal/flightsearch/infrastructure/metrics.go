package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/application"
)

type PrometheusMetrics struct {
	ticketsUpserted prometheus.Counter
	ingestFailures  *prometheus.CounterVec
	searches        *prometheus.CounterVec
	solutions       prometheus.Histogram
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		ticketsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flightsearch",
			Name:      "tickets_upserted_total",
			Help:      "Tickets written by committed upsert batches.",
		}),
		ingestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flightsearch",
			Name:      "ingest_failures_total",
			Help:      "Ticket batches rejected or not stored, by outcome.",
		}, []string{"result"}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flightsearch",
			Name:      "searches_total",
			Help:      "Itinerary searches by outcome.",
		}, []string{"result"}),
		solutions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flightsearch",
			Name:      "search_solutions",
			Help:      "Solutions returned per successful search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *PrometheusMetrics) TicketsUpserted(count int) {
	m.ticketsUpserted.Add(float64(count))
}

func (m *PrometheusMetrics) IngestFailed(outcome string) {
	m.ingestFailures.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) SearchCompleted(outcome string, solutions int) {
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == application.OutcomeOK {
		m.solutions.Observe(float64(solutions))
	}
}
