// Package metrics exposes estimator counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error kinds used for the errors counter.
const (
	KindConfiguration  = "configuration"
	KindDegenerate     = "degenerate_scale"
	KindInvalidRequest = "invalid_request"
	KindInternal       = "internal"
)

// Metrics holds all application metrics on a private registry.
type Metrics struct {
	Estimates   *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	AreaSquareM prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "area_estimates_total",
			Help: "Area estimates produced, by method (reference or default)",
		}, []string{"method"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "area_estimate_errors_total",
			Help: "Failed area estimates, by error kind",
		}, []string{"kind"}),
		AreaSquareM: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "area_estimate_square_meters",
			Help:    "Distribution of estimated areas in square meters",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 50, 100, 200},
		}),
	}

	m.registry.MustRegister(m.Estimates, m.Errors, m.AreaSquareM)
	return m
}

// ObserveEstimate records a successful estimate.
func (m *Metrics) ObserveEstimate(method string, areaM2 float64) {
	m.Estimates.WithLabelValues(method).Inc()
	m.AreaSquareM.Observe(areaM2)
}

// ObserveError records a failed estimate.
func (m *Metrics) ObserveError(kind string) {
	m.Errors.WithLabelValues(kind).Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
