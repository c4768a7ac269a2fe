package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vtree/pkg/tree"
)

// Config configures the Prometheus metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "vtree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vtree",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics implements tree.Metrics on Prometheus collectors. Create one per
// registry; registering twice panics.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	computeErrors  *prometheus.CounterVec
	mutations      *prometheus.CounterVec
	mismatches     prometheus.Counter
	nodesCompiled  *prometheus.CounterVec
}

var _ tree.Metrics = (*Metrics)(nil)

// New registers the render metrics.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of renders by node kind and status",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		computeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compute_errors_total",
			Help:        "Total number of failed node recomputes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "output_mutations_total",
			Help:        "Total number of output tree mutations applied by renders",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		mismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "structural_mismatches_total",
			Help:        "Total number of structural mismatches repaired during sync",
			ConstLabels: config.ConstLabels,
		}),

		nodesCompiled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_compiled_total",
			Help:        "Total number of compiled nodes by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// RenderCompleted implements tree.Metrics.
func (m *Metrics) RenderCompleted(kind tree.Kind, d time.Duration, stats tree.RenderStats) {
	status := "success"
	if stats.ComputeErrors > 0 {
		status = "error"
	}
	m.rendersTotal.WithLabelValues(kind.String(), status).Inc()
	m.renderDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
	m.mutations.WithLabelValues("structural").Add(float64(stats.StructuralMutations))
	m.mutations.WithLabelValues("content").Add(float64(stats.Mutations - stats.StructuralMutations))
}

// NodeCompiled implements tree.Metrics.
func (m *Metrics) NodeCompiled(kind tree.Kind) {
	m.nodesCompiled.WithLabelValues(kind.String()).Inc()
}

// ComputeFailed implements tree.Metrics.
func (m *Metrics) ComputeFailed(kind tree.Kind) {
	m.computeErrors.WithLabelValues(kind.String()).Inc()
}

// StructuralMismatch implements tree.Metrics.
func (m *Metrics) StructuralMismatch() {
	m.mismatches.Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
