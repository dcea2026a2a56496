package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Grant outcomes.
const (
	OutcomeGranted  = "granted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	OAuthGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimbu_oauth_grants_total",
		Help: "Total number of OAuth2 token grant attempts",
	}, []string{"grant_type", "outcome"})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimbu_api_requests_total",
		Help: "Total number of API requests by method and response status",
	}, []string{"method", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nimbu_api_request_duration_seconds",
		Help:    "Time spent waiting for API responses",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10), // 10ms to ~5s
	}, []string{"method"})
)

// StatusLabel renders a status code label; 0 is used for requests that never
// got a response.
func StatusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
