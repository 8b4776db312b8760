// Package metrics exposes Prometheus collectors for the scheduler and
// renderer. Collectors are instance-scoped; nothing registers against a
// global registry unless the default registerer is left in place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures metric registration.
type Config struct {
	// Namespace is the metrics namespace (default: "reflow").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures metric registration.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reflow",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors for one runtime instance.
type Metrics struct {
	FlushesTotal    prometheus.Counter
	JobsFlushed     prometheus.Counter
	EffectRuns      prometheus.Counter
	PatchesTotal    *prometheus.CounterVec
	MountsTotal     prometheus.Counter
	UnmountsTotal   prometheus.Counter
	MovesTotal      prometheus.Counter
	PatchDuration   prometheus.Histogram
	RemoteOpsTotal  *prometheus.CounterVec
	RemoteOpBytes   prometheus.Counter
	ActiveWatchers  prometheus.Gauge
}

// New registers and returns the collector set.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		FlushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		JobsFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "jobs_flushed_total",
			Help:        "Total number of jobs executed by the scheduler",
			ConstLabels: config.ConstLabels,
		}),

		EffectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of render effect executions",
			ConstLabels: config.ConstLabels,
		}),

		PatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patch operations by node kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		MountsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounts_total",
			Help:        "Total number of vnode mounts",
			ConstLabels: config.ConstLabels,
		}),

		UnmountsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "unmounts_total",
			Help:        "Total number of vnode unmounts",
			ConstLabels: config.ConstLabels,
		}),

		MovesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "moves_total",
			Help:        "Total number of keyed-diff node moves",
			ConstLabels: config.ConstLabels,
		}),

		PatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Root patch duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: config.ConstLabels,
		}),

		RemoteOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "remote_ops_total",
			Help:        "Total number of remote mutation ops sent by op kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		RemoteOpBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "remote_op_bytes_total",
			Help:        "Total encoded bytes of remote mutation frames",
			ConstLabels: config.ConstLabels,
		}),

		ActiveWatchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_watchers",
			Help:        "Number of live watcher subscriptions",
			ConstLabels: config.ConstLabels,
		}),
	}
}
