// Package metrics : метрики Prometheus для выдачи и проверки токенов.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop_auth"

// Metrics можно использовать как nil, тогда методы ничего не делают.
type Metrics struct {
	verifications  *prometheus.CounterVec
	remoteDuration prometheus.Histogram
	tokensIssued   *prometheus.CounterVec
	revocations    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Token verifications by verifier and outcome.",
		}, []string{"verifier", "outcome"}),
		remoteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_verification_duration_seconds",
			Help:      "Latency of remote introspection calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Issued tokens by type.",
		}, []string{"type"}),
		revocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocations_total",
			Help:      "Revocation cutoff changes by operation.",
		}, []string{"operation"}),
	}
}

// NewRegistry возвращает реестр с коллекторами Go и процесса.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveVerification(verifier, outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(verifier, outcome).Inc()
}

func (m *Metrics) ObserveRemoteCall(started time.Time) {
	if m == nil {
		return
	}
	m.remoteDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) TokenIssued(tokenType string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(tokenType).Inc()
}

func (m *Metrics) Revocation(operation string) {
	if m == nil {
		return
	}
	m.revocations.WithLabelValues(operation).Inc()
}

func (m *Metrics) VerificationCounter(verifier, outcome string) prometheus.Counter {
	return m.verifications.WithLabelValues(verifier, outcome)
}
