// Package httpserver exposes the queue runtime over a small JSON HTTP API
// plus the Prometheus scrape endpoint.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rzbill/batchq/internal/queue"
	"github.com/rzbill/batchq/internal/runtime"
)

type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/queues", s.handleQueues)
	mux.HandleFunc("/v1/queues/push", s.handlePush)
	mux.HandleFunc("/v1/queues/length", s.handleLength)
	mux.HandleFunc("/v1/queues/list", s.handleList)
	mux.HandleFunc("/v1/queues/flush", s.handleFlush)
	mux.HandleFunc("/v1/queues/destroy", s.handleDestroy)
	mux.Handle("/metrics", rt.Metrics().Handler())
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps queue and registry errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var overflow *queue.OverflowError
	var sticky *queue.StickyFaultError
	switch {
	case errors.Is(err, runtime.ErrInvalidQueueName):
		status = http.StatusBadRequest
	case errors.Is(err, runtime.ErrQueueLimit), errors.As(err, &overflow):
		status = http.StatusTooManyRequests
	case errors.Is(err, queue.ErrDestroyed):
		status = http.StatusGone
	case errors.As(err, &sticky):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queues": s.rt.Queues()})
}

type pushReq struct {
	Queue  string       `json:"queue"`
	Record queue.Record `json:"record"`

	// Applied only when this push creates the queue.
	FlushAt        int  `json:"flushAt"`
	MaxLength      int  `json:"maxLength"`
	FlushTimeoutMs int  `json:"flushTimeoutMs"`
	NoPersist      bool `json:"noPersist"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req pushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Record == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	q, err := s.rt.OpenQueue(req.Queue, runtime.QueueOptions{
		FlushAt:      req.FlushAt,
		MaxLength:    req.MaxLength,
		FlushTimeout: time.Duration(req.FlushTimeoutMs) * time.Millisecond,
		NoPersist:    req.NoPersist,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	if _, err := q.Push(req.Record).Wait(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type queueReq struct {
	Queue string `json:"queue"`
}

// resolve decodes the common {queue} body and looks up the live instance.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, body any, name *string) (*queue.Queue, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return nil, false
	}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	q, ok := s.rt.GetQueue(*name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "queue not found: " + *name})
		return nil, false
	}
	return q, true
}

func (s *Server) handleLength(w http.ResponseWriter, r *http.Request) {
	var req queueReq
	q, ok := s.resolve(w, r, &req, &req.Queue)
	if !ok {
		return
	}
	n, err := q.Length().Wait(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"length": n})
}

type listReq struct {
	Queue  string `json:"queue"`
	Filter string `json:"filter"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req listReq
	q, ok := s.resolve(w, r, &req, &req.Queue)
	if !ok {
		return
	}
	var f *queue.Future[[]queue.Record]
	if req.Filter != "" {
		f = q.Select(req.Filter)
	} else {
		f = q.List(false)
	}
	records, err := f.Wait(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	var req queueReq
	q, ok := s.resolve(w, r, &req, &req.Queue)
	if !ok {
		return
	}
	// A one-shot override captures the batch so the caller receives what
	// was drained instead of a bare acknowledgement.
	var drained []queue.Record
	done := q.Flush(func(ctx context.Context, records []queue.Record) error {
		drained = records
		return nil
	})
	if _, err := done.Wait(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": drained, "count": len(drained)})
}

type destroyReq struct {
	Queue string `json:"queue"`
	Erase bool   `json:"erase"`
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	var req destroyReq
	q, ok := s.resolve(w, r, &req, &req.Queue)
	if !ok {
		return
	}
	if _, err := q.Destroy(req.Erase).Wait(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "destroyed"})
}
