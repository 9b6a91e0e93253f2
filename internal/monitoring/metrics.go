package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status_code"},
	)
)

var (
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_call_duration_seconds",
			Help:    "Duration of GraphQL API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	BreakerStateChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_circuit_breaker_state_changes_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "to"},
	)
)

var (
	CheckoutAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_checkout_attempts_total",
			Help: "Total number of checkout attempts",
		},
	)

	CheckoutOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_outcomes_total",
			Help: "Total number of checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutLockFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_lock_failures_total",
			Help: "Total number of checkout gate acquisitions that failed",
		},
		[]string{"reason"},
	)

	CartPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_persist_failures_total",
			Help: "Total number of cart writes that could not be persisted",
		},
	)

	CartHydrateFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_hydrate_failures_total",
			Help: "Total number of carts that could not be decoded and were reset",
		},
	)
)

var (
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_requests_total",
			Help: "Total number of cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	OutboxPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_outbox_published_total",
			Help: "Total number of outbox events published to Kafka",
		},
	)

	OutboxPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_outbox_publish_failures_total",
			Help: "Total number of outbox events that failed to publish",
		},
	)
)

// Result labels for API calls.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultMalformed   = "malformed"
	ResultError       = "error"
)

// ObserveAPICall records one GraphQL call; classify maps its error to a result label.
func ObserveAPICall(operation string, err error, d time.Duration, classify func(error) string) {
	result := ResultOK
	if err != nil {
		result = ResultError
		if classify != nil {
			result = classify(err)
		}
	}
	APICallDuration.WithLabelValues(operation, result).Observe(d.Seconds())
}

func RecordBreakerStateChange(name, to string) {
	BreakerStateChangesTotal.WithLabelValues(name, to).Inc()
}

func RecordCheckoutAttempt() {
	CheckoutAttemptsTotal.Inc()
}

func RecordCheckoutOutcome(outcome string) {
	CheckoutOutcomesTotal.WithLabelValues(outcome).Inc()
}

func RecordCheckoutLockFailure(reason string) {
	CheckoutLockFailuresTotal.WithLabelValues(reason).Inc()
}

func RecordCacheHit(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "hit").Inc()
}

func RecordCacheMiss(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "miss").Inc()
}

func RecordCacheError(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "error").Inc()
}
