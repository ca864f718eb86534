package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueueCounters(t *testing.T) {
	r := NewRegistry()
	m := r.ForQueue("orders")

	m.ObservePush()
	m.ObservePush()
	m.ObserveOverflow()
	m.ObserveFlush(5, 20*time.Millisecond)
	m.ObserveDepth(3, 1)

	if got := testutil.ToFloat64(r.pushes.WithLabelValues("orders")); got != 2 {
		t.Fatalf("pushes = %v", got)
	}
	if got := testutil.ToFloat64(r.overflows.WithLabelValues("orders")); got != 1 {
		t.Fatalf("overflows = %v", got)
	}
	if got := testutil.ToFloat64(r.drained.WithLabelValues("orders")); got != 5 {
		t.Fatalf("drained = %v", got)
	}
	if got := testutil.ToFloat64(r.stored.WithLabelValues("orders")); got != 3 {
		t.Fatalf("stored gauge = %v", got)
	}
}

func TestDropQueueRemovesSeries(t *testing.T) {
	r := NewRegistry()
	r.ForQueue("orders").ObservePush()
	r.DropQueue("orders")

	if n := testutil.CollectAndCount(r.pushes); n != 0 {
		t.Fatalf("series after drop = %d", n)
	}
}

func TestHandlerExposesStorageMetrics(t *testing.T) {
	r := NewRegistry()
	s := r.Storage()
	s.ObserveWrite(time.Millisecond, 128)
	s.ObserveRead(time.Millisecond, 64)
	s.ObserveBatchCommit(time.Millisecond, 2, 256)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`batchq_storage_bytes_total{op="write"} 128`,
		`batchq_storage_bytes_total{op="read"} 64`,
		`batchq_storage_bytes_total{op="commit"} 256`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q", want)
		}
	}
}
