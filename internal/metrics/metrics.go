package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taller_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taller_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DraftSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taller_wizard_draft_saves_total",
			Help: "Wizard draft snapshots written",
		},
	)

	OrdenesCreadasTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taller_reparaciones_creadas_total",
			Help: "Repair orders created through the wizard",
		},
	)
)
