package runtime

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	cfgpkg "github.com/rzbill/batchq/internal/config"
	"github.com/rzbill/batchq/internal/metrics"
	"github.com/rzbill/batchq/internal/queue"
	pebblestore "github.com/rzbill/batchq/internal/storage/pebble"
	"github.com/rzbill/batchq/internal/store"
	logpkg "github.com/rzbill/batchq/pkg/log"
)

// ErrInvalidQueueName reports a queue name rejected by the configured pattern.
var ErrInvalidQueueName = errors.New("runtime: invalid queue name")

// ErrQueueLimit reports that opening another queue would exceed MaxQueues.
var ErrQueueLimit = errors.New("runtime: queue limit reached")

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        logpkg.Logger
	// Metrics defaults to a fresh registry when nil.
	Metrics *metrics.Registry
}

// QueueOptions are per-queue overrides applied on first open. Zero fields
// fall back to the configured queue defaults.
type QueueOptions struct {
	FlushAt      int
	MaxLength    int
	FlushTimeout time.Duration
	NoPersist    bool
	OnFlush      queue.FlushFunc
}

// Runtime wires storage, config, and the queue registry for a single-node
// instance. All queues share one Pebble database, each under its own key
// prefix.
type Runtime struct {
	db      *pebblestore.DB
	config  cfgpkg.Config
	logger  logpkg.Logger
	metrics *metrics.Registry
	nameRe  *regexp.Regexp

	mu     sync.Mutex
	queues map[string]*queue.Queue
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	nameRe, err := regexp.Compile(opts.Config.QueueNameRegex)
	if err != nil {
		return nil, fmt.Errorf("runtime: queue name regex: %w", err)
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}

	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       reg.Storage(),
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		db:      db,
		config:  opts.Config,
		logger:  logger.With(logpkg.Component("runtime")),
		metrics: reg,
		nameRe:  nameRe,
		queues:  make(map[string]*queue.Queue),
	}, nil
}

// OpenQueue returns the live queue registered under name, creating it when
// absent. Creation validates the name, enforces the queue limit, applies
// configured defaults under the caller's overrides, and wires destruction to
// deregistration. Overrides passed for an already-live queue are ignored.
func (r *Runtime) OpenQueue(name string, opts QueueOptions) (*queue.Queue, error) {
	if !r.nameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQueueName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[name]; ok {
		return q, nil
	}
	if max := r.config.MaxQueues; max > 0 && len(r.queues) >= max {
		return nil, fmt.Errorf("%w: %d", ErrQueueLimit, max)
	}

	defaults := r.config.QueueDefaults
	qopts := queue.Options{
		FlushAt:      opts.FlushAt,
		MaxLength:    opts.MaxLength,
		FlushTimeout: opts.FlushTimeout,
		NoPersist:    opts.NoPersist,
		OnFlush:      opts.OnFlush,
		Logger:       r.logger,
		Metrics:      r.metrics.ForQueue(name),
	}
	if qopts.FlushAt <= 0 {
		qopts.FlushAt = defaults.FlushAt
	}
	if qopts.MaxLength <= 0 {
		qopts.MaxLength = defaults.MaxLength
	}
	if qopts.FlushTimeout <= 0 {
		qopts.FlushTimeout = time.Duration(defaults.FlushTimeoutMs) * time.Millisecond
	}

	var q *queue.Queue
	qopts.OnDestroy = func() {
		r.mu.Lock()
		if cur, ok := r.queues[name]; ok && cur == q {
			delete(r.queues, name)
		}
		r.mu.Unlock()
		r.metrics.DropQueue(name)
	}

	q = queue.Open(name, store.NewPebbleKV(r.db, name), qopts)
	r.queues[name] = q
	r.logger.Info("queue opened", logpkg.Str("queue", name))
	return q, nil
}

// GetQueue returns the live queue under name without creating one.
func (r *Runtime) GetQueue(name string) (*queue.Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[name]
	return q, ok
}

// Queues lists the names of live queues in sorted order.
func (r *Runtime) Queues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.queues))
	for name := range r.queues {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CheckHealth verifies the storage layer accepts reads.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Close releases the underlying database. Live queue actors park on their
// mailboxes; records stay persisted and recover on the next Open.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DB exposes the underlying database for internal tooling.
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Metrics returns the registry backing this runtime's collectors.
func (r *Runtime) Metrics() *metrics.Registry { return r.metrics }
