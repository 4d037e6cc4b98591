// Package metrics exposes classification metrics to Prometheus.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names
const (
	ClassificationsTotal     = "meterwatch_classifications_total"
	CacheHitsTotal           = "meterwatch_classification_cache_hits_total"
	ClassificationDuration   = "meterwatch_classification_duration_seconds"
	StoredVerdictsTotal      = "meterwatch_stored_verdicts_total"
	CacheEntriesDeletedTotal = "meterwatch_verdict_cache_deleted_total"
)

type metricDefinition struct {
	Name string
	Help string
	Type string
}

// Collector records classification metrics. It implements domain.VerdictRecorder.
type Collector struct {
	factory     promauto.Factory
	definitions []metricDefinition

	classifications *prometheus.CounterVec
	cacheHits       prometheus.Counter
	duration        prometheus.Histogram
	storedVerdicts  prometheus.Counter
	cacheDeleted    prometheus.Counter
}

// New creates a collector registered with reg (prometheus.DefaultRegisterer in
// production, a fresh registry in tests)
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{factory: promauto.With(reg)}

	c.classifications = c.newCounterVec(prometheus.CounterOpts{
		Name: ClassificationsTotal,
		Help: "Verdicts produced, by category",
	}, []string{"category"})
	c.cacheHits = c.newCounter(prometheus.CounterOpts{
		Name: CacheHitsTotal,
		Help: "Verdicts served from the verdict cache",
	})
	c.duration = c.newHistogram(prometheus.HistogramOpts{
		Name:    ClassificationDuration,
		Help:    "Time spent producing a verdict, cache lookups included",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})
	c.storedVerdicts = c.newCounter(prometheus.CounterOpts{
		Name: StoredVerdictsTotal,
		Help: "Verdicts persisted to an expediente's history",
	})
	c.cacheDeleted = c.newCounter(prometheus.CounterOpts{
		Name: CacheEntriesDeletedTotal,
		Help: "Expired verdicts removed by the cleanup job",
	})

	return c
}

func (c *Collector) newCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c.definitions = append(c.definitions, metricDefinition{Name: opts.Name, Help: opts.Help, Type: "counter"})
	return c.factory.NewCounter(opts)
}

func (c *Collector) newCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	c.definitions = append(c.definitions, metricDefinition{Name: opts.Name, Help: opts.Help, Type: "counter"})
	return c.factory.NewCounterVec(opts, labelNames)
}

func (c *Collector) newHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	c.definitions = append(c.definitions, metricDefinition{Name: opts.Name, Help: opts.Help, Type: "histogram"})
	return c.factory.NewHistogram(opts)
}

// RecordVerdict counts a verdict and observes how long it took
func (c *Collector) RecordVerdict(category domain.Category, cached bool, duration time.Duration) {
	c.classifications.WithLabelValues(string(category)).Inc()
	if cached {
		c.cacheHits.Inc()
	}
	c.duration.Observe(duration.Seconds())
}

// RecordStoredVerdict counts a verdict saved to an expediente's history
func (c *Collector) RecordStoredVerdict() {
	c.storedVerdicts.Inc()
}

// RecordCacheCleanup counts verdicts removed by the cleanup job
func (c *Collector) RecordCacheCleanup(deleted int64) {
	c.cacheDeleted.Add(float64(deleted))
}

// Documentation renders the registered metrics as a markdown reference
func (c *Collector) Documentation() string {
	var b strings.Builder
	for _, d := range c.definitions {
		fmt.Fprintf(&b, `
### %s
| **Name** | %s |
|:---|:---|
| **Description** | %s |
| **Type** | %s |
`, d.Name, d.Name, d.Help, d.Type)
	}
	return b.String()
}
