package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	cfgpkg "github.com/rzbill/batchq/internal/config"
	"github.com/rzbill/batchq/internal/runtime"
	pebblestore "github.com/rzbill/batchq/internal/storage/pebble"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return New(rt)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/v1/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestPushLengthListFlushDestroy(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, s, http.MethodPost, "/v1/queues/push", map[string]any{
			"queue":  "orders",
			"record": map[string]any{"n": i},
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("push %d status = %d: %s", i, rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/queues/length", map[string]any{"queue": "orders"})
	if rec.Code != http.StatusOK {
		t.Fatalf("length status = %d", rec.Code)
	}
	var lengthResp struct {
		Length int `json:"length"`
	}
	decode(t, rec, &lengthResp)
	if lengthResp.Length != 3 {
		t.Fatalf("length = %d", lengthResp.Length)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/queues", nil)
	var queuesResp struct {
		Queues []string `json:"queues"`
	}
	decode(t, rec, &queuesResp)
	if len(queuesResp.Queues) != 1 || queuesResp.Queues[0] != "orders" {
		t.Fatalf("queues = %v", queuesResp.Queues)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/queues/list", map[string]any{
		"queue":  "orders",
		"filter": "record.n >= 1",
	})
	var listResp struct {
		Count int `json:"count"`
	}
	decode(t, rec, &listResp)
	if listResp.Count != 2 {
		t.Fatalf("filtered count = %d", listResp.Count)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/queues/flush", map[string]any{"queue": "orders"})
	var flushResp struct {
		Count   int              `json:"count"`
		Records []map[string]any `json:"records"`
	}
	decode(t, rec, &flushResp)
	if flushResp.Count != 3 || len(flushResp.Records) != 3 {
		t.Fatalf("flush drained %d records", flushResp.Count)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/queues/destroy", map[string]any{"queue": "orders", "erase": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("destroy status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodPost, "/v1/queues/length", map[string]any{"queue": "orders"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("length after destroy = %d", rec.Code)
	}
}

func TestPushRejectsInvalidName(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/v1/queues/push", map[string]any{
		"queue":  "Not Valid",
		"record": map[string]any{"n": 1},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPushOverflowReturns429(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 4; i++ {
		rec := doJSON(t, s, http.MethodPost, "/v1/queues/push", map[string]any{
			"queue":     "bounded",
			"record":    map[string]any{"n": i},
			"maxLength": 3,
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("push %d status = %d", i, rec.Code)
		}
	}
	rec := doJSON(t, s, http.MethodPost, "/v1/queues/push", map[string]any{
		"queue":  "bounded",
		"record": map[string]any{"n": 99},
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("overflow status = %d: %s", rec.Code, rec.Body)
	}
}

func TestUnknownQueueIs404(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/v1/queues/length", "/v1/queues/list", "/v1/queues/flush", "/v1/queues/destroy"} {
		rec := doJSON(t, s, http.MethodPost, path, map[string]any{"queue": "ghost"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/v1/queues/push", map[string]any{
		"queue":  "orders",
		"record": map[string]any{"n": 1},
	})
	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("batchq_pushes_total")) {
		t.Fatalf("scrape missing queue counters")
	}
}
