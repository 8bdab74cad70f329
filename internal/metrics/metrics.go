package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CheckoutAttempts counts checkout calls by result: committed,
	// rolled_back, rejected.
	CheckoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acme_shop",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Total checkout attempts by result.",
	}, []string{"result"})

	// CheckoutDuration measures the full checkout call including the
	// gateway round trip.
	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "acme_shop",
		Subsystem: "checkout",
		Name:      "duration_seconds",
		Help:      "Checkout latency in seconds.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Compensations counts orders deleted after a failed session request.
	Compensations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "acme_shop",
		Subsystem: "checkout",
		Name:      "compensations_total",
		Help:      "Orders rolled back after a gateway failure.",
	})

	// WebhookEvents counts verified payment events by type and outcome:
	// applied, duplicate, unknown_order, ignored.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acme_shop",
		Subsystem: "checkout",
		Name:      "webhook_events_total",
		Help:      "Verified payment events by type and outcome.",
	}, []string{"type", "outcome"})

	// WebhookRejected counts payloads that failed signature verification.
	WebhookRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "acme_shop",
		Subsystem: "checkout",
		Name:      "webhook_rejected_total",
		Help:      "Webhook payloads rejected at the verification boundary.",
	})
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
