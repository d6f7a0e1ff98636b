// Package observability holds the metrics and tracing plumbing for review
// routing.
package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richhaase/interpeer/internal/domain"
)

// Metrics bundles Prometheus collectors for routed reviews.
type Metrics struct {
	registry *prometheus.Registry
	Requests *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Attempts *prometheus.CounterVec
	Tokens   *prometheus.CounterVec
}

// NewMetrics constructs a private registry with review collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interpeer_review_requests_total",
			Help: "Completed reviews by agent and cache status",
		}, []string{"agent", "cache"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interpeer_review_failures_total",
			Help: "Failed reviews by agent and error kind",
		}, []string{"agent", "kind"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interpeer_review_duration_seconds",
			Help:    "End-to-end review duration in seconds",
			Buckets: []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"agent"}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interpeer_review_attempts_total",
			Help: "Adapter invocations including retries",
		}, []string{"agent"}),
		Tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interpeer_review_tokens_total",
			Help: "Tokens reported by agents by direction",
		}, []string{"agent", "direction"}),
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordReview records a completed review. Tokens are only counted for
// cache misses; a hit spends none.
func (m *Metrics) RecordReview(agent string, cache domain.CacheStatus, duration time.Duration, usage *domain.Usage) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(agent, string(cache)).Inc()
	m.Duration.WithLabelValues(agent).Observe(duration.Seconds())
	if usage != nil && cache == domain.CacheMiss {
		m.Tokens.WithLabelValues(agent, "input").Add(float64(usage.InputTokens))
		m.Tokens.WithLabelValues(agent, "cached_input").Add(float64(usage.CachedInputTokens))
		m.Tokens.WithLabelValues(agent, "output").Add(float64(usage.OutputTokens))
	}
}

// RecordAttempt counts one adapter invocation.
func (m *Metrics) RecordAttempt(agent string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(agent).Inc()
}

// RecordFailure counts a failed review, labeled by error kind.
func (m *Metrics) RecordFailure(agent string, err error) {
	if m == nil {
		return
	}
	if agent == "" {
		agent = "unknown"
	}
	m.Failures.WithLabelValues(agent, ErrorKind(err)).Inc()
}

// ErrorKind classifies err for metric labels and logs.
func ErrorKind(err error) string {
	var (
		ve *domain.ValidationError
		ce *domain.ConfigError
		av *domain.AvailabilityError
		rr *domain.ResourceReadError
		ad *domain.AdapterError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &av):
		return "availability"
	case errors.As(err, &rr):
		return "resource"
	case errors.As(err, &ad):
		return "adapter"
	default:
		return "unknown"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
