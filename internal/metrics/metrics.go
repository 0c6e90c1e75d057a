// Package metrics exposes the service's Prometheus collectors on a dedicated
// registry so /metrics never picks up collectors from imported libraries.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Assignments counts dispatch outcomes; mode is auto or manual.
	Assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "assignments_total", Help: "Ticket assignments by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	// Classifications counts ticket triage runs; source is the classifier
	// that produced the result (openai or rules).
	Classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "classifications_total", Help: "Ticket classifications by source and severity."},
		[]string{"source", "severity"},
	)
)

var regOnce sync.Once

// Register wires every collector onto the registry. Safe to call more than
// once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Assignments)
		Registry.MustRegister(Classifications)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
