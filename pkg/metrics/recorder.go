// Package metrics exposes pipeline counters and the operational metric sink
// on Prometheus.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records run-level metrics and accepts ad-hoc operational metrics
// through Emit.
type Recorder struct {
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	recordsTotal *prometheus.CounterVec
	emitted      *prometheus.CounterVec
	gauges       *prometheus.GaugeVec
}

// New registers the recorder's collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Pipeline errors by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of pipeline operations",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"operation"},
		),
		recordsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Records validated by outcome",
			},
			[]string{"outcome"},
		),
		emitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Count metrics emitted by pipeline stages",
			},
			[]string{"source", "metric", "dims"},
		),
		gauges: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gauge",
				Help:      "Last value of non-count metrics emitted by pipeline stages",
			},
			[]string{"source", "metric", "dims", "unit"},
		),
	}
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordRecords(outcome string, n int) {
	if n > 0 {
		r.recordsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// Emit never fails the caller: "Count" metrics accumulate, every other unit
// is kept as the last observed value. Negative counts are dropped.
func (r *Recorder) Emit(namespace, name string, dims map[string]string, value float64, unit string) {
	defer func() { _ = recover() }()

	d := FormatDims(dims)
	if unit == "Count" {
		if value >= 0 {
			r.emitted.WithLabelValues(namespace, name, d).Add(value)
		}
		return
	}
	r.gauges.WithLabelValues(namespace, name, d, unit).Set(value)
}

// FormatDims renders dimensions as a stable k=v list.
func FormatDims(dims map[string]string) string {
	if len(dims) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, dims[k])
	}
	return strings.Join(parts, ",")
}
