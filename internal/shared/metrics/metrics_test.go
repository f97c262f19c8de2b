package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	var cumulative uint64
	want := []uint64{1, 2}
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		if cumulative != want[i] {
			t.Fatalf("bucket %d cumulative = %d, want %d", i, cumulative, want[i])
		}
	}
}

func TestRenderIncludesReportSeries(t *testing.T) {
	IncReportGenerated()
	AddImageFallbacks(2)
	ObserveReportDurationMs(120)

	out := Render()
	for _, name := range []string{
		"report_generated_total",
		"report_failed_total",
		"report_image_fallback_total",
		"report_duration_ms_bucket{le=\"250\"}",
		"report_duration_ms_count",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("metrics output missing %s:\n%s", name, out)
		}
	}
}
