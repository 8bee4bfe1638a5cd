package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_http_requests_total",
			Help: "HTTP requests handled by the board service",
		},
		[]string{"method", "status"},
	)

	// HTTPDuration tracks request latency by method.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "board_http_request_duration_seconds",
			Help:    "Latency of board HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// MessagesPosted counts messages accepted by the store.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_messages_posted_total",
		Help: "Messages successfully stored",
	})

	// MessagesListed counts rows rendered on list pages.
	MessagesListed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_messages_listed_total",
		Help: "Messages rendered by list requests",
	})

	// StoreErrors counts failed store operations by operation name.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_store_errors_total",
			Help: "Failed store operations",
		},
		[]string{"op"},
	)

	// RateLimited counts posts rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_rate_limited_total",
		Help: "Posts rejected by the rate limiter",
	})
)

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
