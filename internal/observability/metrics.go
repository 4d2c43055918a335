package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms of the calendar panel.
type Metrics struct {
	Aggregations           prometheus.Counter
	ObservationsAggregated prometheus.Counter
	ObservationsDropped    prometheus.Counter
	FramesSkipped          prometheus.Counter
	AggregationDuration    prometheus.Histogram
	RenderDuration         prometheus.Histogram

	HitTests   *prometheus.CounterVec // labels: outcome={hit,miss}
	Navigation *prometheus.CounterVec // labels: kind={month,year}, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		Aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "aggregations_total",
			Help:      "Total day bucket aggregation passes.",
		}),
		ObservationsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "observations_aggregated_total",
			Help:      "Observations counted into day or outside-year buckets.",
		}),
		ObservationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "observations_dropped_total",
			Help:      "Zero, NaN and null values left out of aggregation.",
		}),
		FramesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "frames_skipped_total",
			Help:      "Frames without a time field or numeric field.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "circalendar",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of one aggregation pass.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "circalendar",
			Name:      "render_duration_seconds",
			Help:      "Duration of rendering one PNG frame.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		HitTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "hit_tests_total",
			Help:      "Pointer hit tests by outcome.",
		}, []string{"outcome"}),
		Navigation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circalendar",
			Name:      "navigation_commands_total",
			Help:      "Time range commands sent to the host by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// NewMetrics creates the panel metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Aggregations,
		m.ObservationsAggregated,
		m.ObservationsDropped,
		m.FramesSkipped,
		m.AggregationDuration,
		m.RenderDuration,
		m.HitTests,
		m.Navigation,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
