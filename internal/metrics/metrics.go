package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	CartMutations      *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	SubmitStarted      prometheus.Counter
	SubmitCompleted    prometheus.Counter
	SubmitFailed       prometheus.Counter
	SubmitLatencySec   prometheus.Histogram
	EventsPublished    prometheus.Counter
	EventsFailed       prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart ledger mutations by operation.",
	}, []string{"op"})
	validation := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_checkout_validation_failures_total"})
	started := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_checkout_submissions_started_total"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_checkout_submissions_completed_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_checkout_submissions_failed_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_submit_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_events_published_total"})
	publishFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_events_publish_failures_total"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storefront_active_sessions"})

	r.MustRegister(cartMutations, validation, started, completed, failed, latency, published, publishFailed, sessions)
	return &Registry{
		reg:                r,
		CartMutations:      cartMutations,
		ValidationFailures: validation,
		SubmitStarted:      started,
		SubmitCompleted:    completed,
		SubmitFailed:       failed,
		SubmitLatencySec:   latency,
		EventsPublished:    published,
		EventsFailed:       publishFailed,
		ActiveSessions:     sessions,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) CartMutated(op string) { r.CartMutations.WithLabelValues(op).Inc() }

func (r *Registry) ValidationFailed() { r.ValidationFailures.Inc() }

func (r *Registry) SubmissionStarted() { r.SubmitStarted.Inc() }

func (r *Registry) SubmissionFinished(elapsed time.Duration, err error) {
	r.SubmitLatencySec.Observe(elapsed.Seconds())
	if err != nil {
		r.SubmitFailed.Inc()
		return
	}
	r.SubmitCompleted.Inc()
}

func (r *Registry) EventPublished(err error) {
	if err != nil {
		r.EventsFailed.Inc()
		return
	}
	r.EventsPublished.Inc()
}

func (r *Registry) SetActiveSessions(n int) { r.ActiveSessions.Set(float64(n)) }
