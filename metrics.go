package ppl

import "github.com/prometheus/client_golang/prometheus"

// Prometheus instrumentation (SPEC_FULL.md §2.3), grounded on
// colonystack/colonycore's use of github.com/prometheus/client_golang for
// its own service metrics. Registered against a dedicated registry rather
// than the global DefaultRegisterer so that embedding this package never
// surprises a host that already runs its own registry.
var (
	metricsRegistry = prometheus.NewRegistry()

	samplesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppl_samples_total",
		Help: "Random draws dispatched through sample, by installed strategy.",
	}, []string{"strategy"})

	factorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppl_factors_total",
		Help: "Log-weight updates dispatched through factor, by installed strategy.",
	}, []string{"strategy"})

	enumerationExecutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ppl_enumeration_executions_total",
		Help: "Completed execution paths across all Enumerate* runs.",
	})

	particleResamplingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ppl_particle_resamplings_total",
		Help: "Residual-resampling events performed by the particle filter.",
	})

	particleFilterParticles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ppl_particle_filter_particles",
		Help: "Current live particle count of the running particle filter (N between resamplings).",
	})
)

func init() {
	metricsRegistry.MustRegister(
		samplesTotal,
		factorsTotal,
		enumerationExecutionsTotal,
		particleResamplingsTotal,
		particleFilterParticles,
	)
}

// MetricsRegistry returns the registry the engine's counters and gauges are
// registered against, for a host to serve over HTTP (e.g. via
// promhttp.HandlerFor) or scrape directly in tests.
func MetricsRegistry() *prometheus.Registry {
	return metricsRegistry
}
