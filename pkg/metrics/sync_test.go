package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetricsRecordsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.IncSuccess("add")
	m.IncSuccess("add")
	m.IncFailure("remove")
	m.ObserveDuration("add", 50*time.Millisecond)
	m.QueueDepthAdd(3)
	m.QueueDepthAdd(-1)

	if got := testutil.ToFloat64(m.success.WithLabelValues("add")); got != 2 {
		t.Fatalf("unexpected success count: %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("remove")); got != 1 {
		t.Fatalf("unexpected failure count: %v", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 2 {
		t.Fatalf("unexpected queue depth: %v", got)
	}
}

func TestSyncMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *SyncMetrics
	m.IncSuccess("add")
	m.IncFailure("")
	m.ObserveDuration("clear", time.Second)
	m.QueueDepthAdd(1)

	empty := NewSyncMetrics(nil)
	empty.IncSuccess("add")
}
