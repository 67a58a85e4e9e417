// Package metrics tracks what an indexing run did using Prometheus metrics.
//
// Every run owns a Collector backed by a private registry, so independent
// runs (and tests) never share counters. At the end of a run the registry is
// gathered into a Snapshot, which the CLI logs as the run summary.
//
//	c := metrics.NewCollector("orders_42.csv")
//	timer := metrics.NewTimer()
//	for ... {
//	    c.RecordIndexed()
//	}
//	c.ObserveRun(timer.Stop())
//	snap, err := c.Snapshot()
//
// Registry exposes the underlying registry for callers that want to serve it.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "flatindex"

// Metric names as registered, without the namespace prefix.
const (
	RecordsIndexedName    = "records_indexed_total"
	BlankLinesSkippedName = "blank_lines_skipped_total"
	BytesScannedName      = "bytes_scanned_total"
	IndexBytesWrittenName = "index_bytes_written_total"
	RunDurationName       = "run_duration_seconds"
	ThroughputName        = "throughput_records_per_second"
)

// Collector holds the metrics of one indexing run. It is not safe for
// concurrent use by multiple runs; each run creates its own.
type Collector struct {
	registry *prometheus.Registry

	recordsIndexed    prometheus.Counter
	blankLinesSkipped prometheus.Counter
	bytesScanned      prometheus.Counter
	indexBytesWritten prometheus.Counter
	runDuration       prometheus.Histogram
	throughput        prometheus.Gauge
}

// NewCollector creates a collector for a run over input. The input base name
// is attached to every metric as a constant label.
func NewCollector(input string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"input": input}

	return &Collector{
		registry: reg,
		recordsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        RecordsIndexedName,
			Help:        "Number of records written to the index",
			ConstLabels: labels,
		}),
		blankLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        BlankLinesSkippedName,
			Help:        "Number of blank data lines skipped",
			ConstLabels: labels,
		}),
		bytesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        BytesScannedName,
			Help:        "Number of input bytes consumed, header included",
			ConstLabels: labels,
		}),
		indexBytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        IndexBytesWrittenName,
			Help:        "Number of bytes written to the index output",
			ConstLabels: labels,
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        RunDurationName,
			Help:        "Wall time of indexing runs in seconds",
			ConstLabels: labels,
			Buckets: []float64{
				0.001, // 1ms - tiny files
				0.01,
				0.1,
				1,
				10,
				60, // 1m - multi-gigabyte files
			},
		}),
		throughput: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        ThroughputName,
			Help:        "Records indexed per second over the last run",
			ConstLabels: labels,
		}),
	}
}

// Registry returns the private registry of the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordIndexed counts one record written to the index.
func (c *Collector) RecordIndexed() {
	c.recordsIndexed.Inc()
}

// RecordBlankLines adds n skipped blank lines.
func (c *Collector) RecordBlankLines(n int64) {
	if n > 0 {
		c.blankLinesSkipped.Add(float64(n))
	}
}

// RecordBytesScanned adds n consumed input bytes.
func (c *Collector) RecordBytesScanned(n int64) {
	if n > 0 {
		c.bytesScanned.Add(float64(n))
	}
}

// RecordBytesWritten adds n bytes written to the index.
func (c *Collector) RecordBytesWritten(n int64) {
	if n > 0 {
		c.indexBytesWritten.Add(float64(n))
	}
}

// ObserveRun records the duration of a finished run and derives its
// throughput from the records counted so far.
func (c *Collector) ObserveRun(d time.Duration) {
	c.runDuration.Observe(d.Seconds())
	if d <= 0 {
		return
	}
	snap, err := c.Snapshot()
	if err != nil {
		return
	}
	c.throughput.Set(float64(snap.RecordsIndexed) / d.Seconds())
}

// Snapshot is a point-in-time copy of a collector's values.
type Snapshot struct {
	RecordsIndexed    int64
	BlankLinesSkipped int64
	BytesScanned      int64
	IndexBytesWritten int64
	// Runs is the number of durations observed.
	Runs uint64
	// DurationSeconds is the sum of all observed durations.
	DurationSeconds float64
	Throughput      float64
}

// Snapshot gathers the registry and returns its current values.
func (c *Collector) Snapshot() (Snapshot, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return Snapshot{}, fmt.Errorf("gather metrics: %w", err)
	}

	var s Snapshot
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		switch mf.GetName() {
		case fqName(RecordsIndexedName):
			s.RecordsIndexed = counterValue(m)
		case fqName(BlankLinesSkippedName):
			s.BlankLinesSkipped = counterValue(m)
		case fqName(BytesScannedName):
			s.BytesScanned = counterValue(m)
		case fqName(IndexBytesWrittenName):
			s.IndexBytesWritten = counterValue(m)
		case fqName(RunDurationName):
			s.Runs = m.GetHistogram().GetSampleCount()
			s.DurationSeconds = m.GetHistogram().GetSampleSum()
		case fqName(ThroughputName):
			s.Throughput = m.GetGauge().GetValue()
		}
	}
	return s, nil
}

func fqName(name string) string {
	return prometheus.BuildFQName(namespace, "", name)
}

func counterValue(m *dto.Metric) int64 {
	return int64(m.GetCounter().GetValue())
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
