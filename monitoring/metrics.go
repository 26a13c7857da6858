package monitoring

import (
	"time"

	"inverpulse/tiers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TierEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_evaluations_total",
			Help: "Eligibility evaluations by matched rule and resulting tier",
		},
		[]string{"rule", "tier"},
	)

	TierEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tier_evaluation_duration_seconds",
			Help:    "Time spent evaluating one investor, store lookups included",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	TierChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_changes_total",
			Help: "Persisted tier transitions",
		},
		[]string{"from", "to", "source"},
	)
)

// TierObserver feeds coordinator events into the tier metrics.
type TierObserver struct{}

var _ tiers.Observer = TierObserver{}

func (TierObserver) Evaluated(res tiers.Result, elapsed time.Duration) {
	TierEvaluationsTotal.WithLabelValues(res.Rule, res.Tier.String()).Inc()
	TierEvaluationDuration.Observe(elapsed.Seconds())
}

func (TierObserver) Changed(c tiers.Change) {
	TierChangesTotal.WithLabelValues(c.From.String(), c.To.String(), c.Source).Inc()
}
