// Package metrics registers the Prometheus collectors exposed on the
// standalone metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by path and status",
		},
		[]string{"path", "method", "status"},
	)

	ResponseTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_time_seconds",
			Help:    "Response time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RegistrationsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of successful registrations",
		},
	)

	LoginsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	NoteWritesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "note_writes_total",
			Help: "Total number of note create/update/delete operations",
		},
		[]string{"op"},
	)
)

func Init() {
	prometheus.MustRegister(HTTPRequestsCounter)
	prometheus.MustRegister(ResponseTimeHistogram)
	prometheus.MustRegister(RegistrationsCounter)
	prometheus.MustRegister(LoginsCounter)
	prometheus.MustRegister(NoteWritesCounter)
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
