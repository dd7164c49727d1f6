package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(apiRequestsTotal, apiRequestLatencyMs, apiNetworkFailures) }

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealapi_requests_total",
			Help: "Backend API requests per logical operation, method and status code.",
		},
		[]string{"op", "method", "status"},
	)

	apiRequestLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealapi_request_latency_ms",
			Help:    "Backend API request latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op", "success"},
	)

	apiNetworkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealapi_network_failures_total",
			Help: "Transport-level failures (no response received) per logical operation.",
		},
		[]string{"op"},
	)
)

func norm(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	return s
}

func ObserveAPIRequest(op, method string, status int, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(norm(op), norm(method), strconv.Itoa(status)).Inc()
	success := status >= 200 && status < 300
	apiRequestLatencyMs.WithLabelValues(norm(op), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

func IncNetworkFailure(op string) {
	apiNetworkFailures.WithLabelValues(norm(op)).Inc()
}
