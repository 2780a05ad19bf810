package middleware

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/pathway"
)

// Chain outcomes recorded in the status label.
const (
	StatusCompleted = "completed"
	StatusHalted    = "halted"
	StatusPanic     = "panic"
)

// MetricsConfig configures the Prometheus handler.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pathway").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for chain duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus handler.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pathway",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	navigations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newMetrics(config MetricsConfig) *metrics {
	navigations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "navigations_total",
		Help:        "Total number of chains run, by route and outcome",
		ConstLabels: config.ConstLabels,
	}, []string{"route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "chain_duration_seconds",
		Help:        "Time spent running a chain in seconds",
		ConstLabels: config.ConstLabels,
		Buckets:     config.Buckets,
	}, []string{"route"})

	return &metrics{
		navigations: register(config.Registry, navigations),
		duration:    register(config.Registry, duration),
	}
}

// register adds c to reg. When an identical collector is already registered,
// for example by another router sharing the registry, that one is returned.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(err)
}

// Prometheus returns a handler that counts chains and observes how long they
// take.
//
// Metrics collected:
//   - pathway_navigations_total{route,status}: status is completed, halted or panic
//   - pathway_chain_duration_seconds{route}: time from this handler to the end of the chain
//
// Example:
//
//	r.Defaults().Use(middleware.Prometheus(
//	    middleware.WithNamespace("shop"),
//	    middleware.WithRegistry(reg),
//	))
func Prometheus(opts ...MetricsOption) pathway.Handler {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := newMetrics(config)

	return func(req *pathway.Request, c *pathway.Chain, next func()) {
		route := req.RouteName()
		start := time.Now()
		status := StatusHalted

		defer func() {
			v := recover()
			if v != nil {
				status = StatusPanic
			}
			m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			m.navigations.WithLabelValues(route, status).Inc()
			if v != nil {
				panic(v)
			}
		}()

		next()
		if c.Pending() == 0 {
			status = StatusCompleted
		}
	}
}
