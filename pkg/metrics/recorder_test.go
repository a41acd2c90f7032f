package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEmitCountAccumulates(t *testing.T) {
	r := New(prometheus.NewRegistry(), "test")

	r.Emit("stockpulse", "EnrichmentFailures", map[string]string{"Stage": "analyze"}, 1, "Count")
	r.Emit("stockpulse", "EnrichmentFailures", map[string]string{"Stage": "analyze"}, 1, "Count")
	r.Emit("stockpulse", "EnrichmentFailures", nil, -3, "Count")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.emitted.WithLabelValues("stockpulse", "EnrichmentFailures", "Stage=analyze")))
}

func TestEmitGaugeKeepsLast(t *testing.T) {
	r := New(prometheus.NewRegistry(), "test")

	r.Emit("ingest", "RejectedPercentage", map[string]string{"Bucket": "raw"}, 40, "Percent")
	r.Emit("ingest", "RejectedPercentage", map[string]string{"Bucket": "raw"}, 12.5, "Percent")

	assert.Equal(t, 12.5, testutil.ToFloat64(r.gauges.WithLabelValues("ingest", "RejectedPercentage", "Bucket=raw", "Percent")))
}

func TestRecordRecords(t *testing.T) {
	r := New(prometheus.NewRegistry(), "test")
	r.RecordRecords("valid", 3)
	r.RecordRecords("valid", 0)
	r.RecordError("storage")

	assert.Equal(t, 3.0, testutil.ToFloat64(r.recordsTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("storage")))
}

func TestFormatDimsIsSorted(t *testing.T) {
	assert.Equal(t, "a=1,b=2", FormatDims(map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "", FormatDims(nil))
}
