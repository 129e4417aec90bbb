package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements [SearchHooks] and [StoreHooks] with Prometheus
// collectors registered on a caller-supplied registry.
type Prometheus struct {
	reg prometheus.Gatherer

	runs         *prometheus.CounterVec
	runErrors    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	iterations   *prometheus.CounterVec
	improvements *prometheus.CounterVec
	bestScore    *prometheus.GaugeVec
	active       *prometheus.GaugeVec

	storeLookups *prometheus.CounterVec
	storePuts    *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg.
// It panics if any collector is already registered on reg.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	p := &Prometheus{
		reg: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_runs_total",
			Help: "The total number of search runs started",
		}, []string{"method"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_run_errors_total",
			Help: "The total number of search runs that returned an error",
		}, []string{"method"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bnsearch_run_duration_seconds",
			Help:    "Wall-clock duration of search runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_iterations_total",
			Help: "The total number of driver iterations",
		}, []string{"method"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_improvements_total",
			Help: "The total number of new best scores found",
		}, []string{"method"}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bnsearch_best_score",
			Help: "The best score found by the latest run, as a fixed-point integer",
		}, []string{"method"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bnsearch_active_runs",
			Help: "The number of search runs in progress",
		}, []string{"method"}),
		storeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_store_lookups_total",
			Help: "The total number of result store lookups",
		}, []string{"backend", "result"}),
		storePuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnsearch_store_puts_total",
			Help: "The total number of result store writes",
		}, []string{"backend", "replaced"}),
	}

	reg.MustRegister(
		p.runs, p.runErrors, p.runDuration, p.iterations,
		p.improvements, p.bestScore, p.active,
		p.storeLookups, p.storePuts,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Prometheus) OnRunStart(_ context.Context, method string, _ int) {
	p.runs.WithLabelValues(method).Inc()
	p.active.WithLabelValues(method).Inc()
}

func (p *Prometheus) OnIteration(_ context.Context, method string, _ int64) {
	p.iterations.WithLabelValues(method).Inc()
}

func (p *Prometheus) OnImprovement(_ context.Context, method string, best int64, _ time.Duration) {
	p.improvements.WithLabelValues(method).Inc()
	p.bestScore.WithLabelValues(method).Set(float64(best))
}

func (p *Prometheus) OnRunComplete(_ context.Context, method string, _ int64, d time.Duration, err error) {
	p.active.WithLabelValues(method).Dec()
	p.runDuration.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		p.runErrors.WithLabelValues(method).Inc()
	}
}

func (p *Prometheus) OnHit(_ context.Context, backend string) {
	p.storeLookups.WithLabelValues(backend, "hit").Inc()
}

func (p *Prometheus) OnMiss(_ context.Context, backend string) {
	p.storeLookups.WithLabelValues(backend, "miss").Inc()
}

func (p *Prometheus) OnPut(_ context.Context, backend string, replaced bool) {
	label := "false"
	if replaced {
		label = "true"
	}
	p.storePuts.WithLabelValues(backend, label).Inc()
}

var (
	_ SearchHooks = (*Prometheus)(nil)
	_ StoreHooks  = (*Prometheus)(nil)
)
