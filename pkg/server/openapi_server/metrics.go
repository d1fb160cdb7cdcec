package openapi_server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// isochroneRequests counts isochrone requests by response status
	isochroneRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isochrone_requests_total",
		Help: "Total isochrone requests by response status",
	}, []string{"status"})

	// isochroneComputeSeconds tracks the time spent in the isochrone pipeline
	isochroneComputeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isochrone_compute_seconds",
		Help:    "Isochrone computation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// isochroneSettledCells tracks the number of cells settled per request
	isochroneSettledCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isochrone_settled_cells",
		Help:    "Number of cells settled per isochrone",
		Buckets: prometheus.ExponentialBuckets(16, 4, 10),
	})
)

func statusLabel(code int) string {
	return strconv.Itoa(code)
}
