package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	feedbackSubmitted     *prometheus.CounterVec
	generationsTotal      *prometheus.CounterVec
	feedConnectionsActive prometheus.Gauge
	feedEventsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codariq",
			Name:      "api_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "codariq",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 60.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codariq",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		feedbackSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codariq",
			Name:      "feedback_submitted_total",
			Help:      "Feedback records accepted, labelled by rating.",
		}, []string{"rating"})

		generationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codariq",
			Name:      "generations_total",
			Help:      "Generation runs completed, labelled by chat model and outcome.",
		}, []string{"chat_model", "outcome"})

		feedConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "codariq",
			Name:      "feed_connections_active",
			Help:      "Currently connected live-feed websocket clients.",
		})

		feedEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codariq",
			Name:      "feed_events_total",
			Help:      "Events broadcast on the live feed, labelled by topic.",
		}, []string{"topic"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			feedbackSubmitted,
			generationsTotal,
			feedConnectionsActive,
			feedEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// FeedbackSubmitted exposes the counter for accepted feedback records.
func FeedbackSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackSubmitted
}

// Generations exposes the counter for completed generation runs.
func Generations() *prometheus.CounterVec {
	RegisterMetrics()
	return generationsTotal
}

// FeedConnections exposes the gauge for connected live-feed clients.
func FeedConnections() prometheus.Gauge {
	RegisterMetrics()
	return feedConnectionsActive
}

// FeedEvents exposes the counter for broadcast feed events.
func FeedEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return feedEventsTotal
}
