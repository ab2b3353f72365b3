// Package metrics exposes Prometheus instrumentation for the samplers.
//
// A Collector is registered against an explicit prometheus.Registerer so
// that tests and embedding programs do not share process-wide state. All
// methods are safe to call on a nil *Collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kgsample"

// Collector groups the sampler metrics.
type Collector struct {
	// NegativesTotal counts negatives produced, labeled by sampler kind and
	// corrupted side.
	NegativesTotal *prometheus.CounterVec

	// CollisionsTotal counts replacement draws that hit the original id and
	// had to be resampled or remapped.
	CollisionsTotal *prometheus.CounterVec

	// FilteredTotal counts negatives flagged as known true triples.
	FilteredTotal *prometheus.CounterVec

	// BatchSize observes the size of each positive batch.
	BatchSize *prometheus.HistogramVec

	// GraphSamplesTotal counts triple indices yielded by the graph sampler.
	GraphSamplesTotal prometheus.Counter

	// GraphReseedsTotal counts how often the graph sampler had to start a
	// new component.
	GraphReseedsTotal prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// creates unregistered metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		NegativesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "negatives_total",
				Help:      "Total number of negative triples generated",
			},
			[]string{"sampler", "side"},
		),
		CollisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collisions_total",
				Help:      "Replacement draws that matched the corrupted id",
			},
			[]string{"sampler"},
		),
		FilteredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filtered_negatives_total",
				Help:      "Negatives flagged as known true triples",
			},
			[]string{"sampler"},
		),
		BatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "positive_batch_size",
				Help:      "Size of positive batches passed to negative samplers",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"sampler"},
		),
		GraphSamplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_samples_total",
			Help:      "Triple indices yielded by the graph sampler",
		}),
		GraphReseedsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_reseeds_total",
			Help:      "Graph sampler restarts from a fresh seed entity",
		}),
	}
}

// ObserveBatch records one positive batch.
func (c *Collector) ObserveBatch(sampler string, size int) {
	if c == nil {
		return
	}
	c.BatchSize.WithLabelValues(sampler).Observe(float64(size))
}

// AddNegatives records n negatives corrupted on side.
func (c *Collector) AddNegatives(sampler, side string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.NegativesTotal.WithLabelValues(sampler, side).Add(float64(n))
}

// AddCollisions records n replacement collisions.
func (c *Collector) AddCollisions(sampler string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.CollisionsTotal.WithLabelValues(sampler).Add(float64(n))
}

// AddFiltered records n filtered negatives.
func (c *Collector) AddFiltered(sampler string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.FilteredTotal.WithLabelValues(sampler).Add(float64(n))
}

// IncGraphSample records one yielded triple index.
func (c *Collector) IncGraphSample() {
	if c == nil {
		return
	}
	c.GraphSamplesTotal.Inc()
}

// IncGraphReseed records a restart from a new component.
func (c *Collector) IncGraphReseed() {
	if c == nil {
		return
	}
	c.GraphReseedsTotal.Inc()
}
