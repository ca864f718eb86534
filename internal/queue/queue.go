package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/batchq/internal/store"
	"github.com/rzbill/batchq/pkg/id"
	logpkg "github.com/rzbill/batchq/pkg/log"
)

// FlushFunc drains one batch of records. Returning an error leaves the batch
// stored so a later flush retries it.
type FlushFunc func(ctx context.Context, records []Record) error

// Options configures a Queue at construction. Zero values take defaults.
type Options struct {
	// FlushAt is the record-count threshold that triggers an automatic
	// flush on push. Default 100.
	FlushAt int
	// MaxLength is the soft capacity bound enforced before enqueueing a
	// push. Default FlushAt*5.
	MaxLength int
	// FlushTimeout is the age after which a non-empty queue becomes
	// flush-eligible. The deadline is checked inside the push handler only;
	// a queue that stops receiving pushes waits for the next push rather
	// than running a background timer. Default 5m.
	FlushTimeout time.Duration
	// NoPersist clears any pre-existing stored records on reload instead of
	// recovering them.
	NoPersist bool
	// OnFlush is the default drain callback. A per-call override passed to
	// Flush takes precedence; with neither, flushed records are discarded.
	OnFlush FlushFunc
	// OnDestroy is invoked exactly once when the queue is destroyed. The
	// registry uses it to drop its name mapping.
	OnDestroy func()
	// Logger defaults to an info-level console logger.
	Logger logpkg.Logger
	// Metrics defaults to NoopMetrics.
	Metrics Metrics
}

func (o *Options) withDefaults() {
	if o.FlushAt <= 0 {
		o.FlushAt = 100
	}
	if o.MaxLength <= 0 {
		o.MaxLength = o.FlushAt * 5
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = 5 * time.Minute
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
}

// state is the actor's lifecycle position.
type state int

const (
	stateInitializing state = iota
	stateReady
	stateFaulted
	stateDestroyed
)

func (s state) String() string {
	switch s {
	case stateInitializing:
		return "initializing"
	case stateReady:
		return "ready"
	case stateFaulted:
		return "faulted"
	case stateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Queue is the public facade over a single-consumer event actor. Methods
// enqueue an event and return a Future without blocking; results become
// available in strict enqueue order.
type Queue struct {
	name    string
	kv      store.KV
	opts    Options
	logger  logpkg.Logger
	metrics Metrics
	ids     *id.Generator

	mb    *mailbox
	ready *Future[bool]

	// Actor-owned; touched only inside the consumer goroutine.
	length   int
	deadline time.Time

	// Shared with the facade for advisory checks.
	storedLen atomic.Int64
	stateMu   sync.Mutex
	state     state
	fault     error

	now func() time.Time
}

// Open constructs a queue over the given store namespace and starts its
// actor with a Reload pre-enqueued ahead of any caller event. Wait on
// Ready() to learn whether recovery succeeded.
func Open(name string, kv store.KV, opts Options) *Queue {
	opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	logger = logger.With(logpkg.Component("queue"), logpkg.Str("queue", name))

	q := &Queue{
		name:    name,
		kv:      kv,
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		ids:     id.NewGenerator(),
		mb:      newMailbox(),
		ready:   newFuture[bool](),
		state:   stateInitializing,
		now:     time.Now,
	}
	// Cannot fail: the mailbox is open and the actor has not started.
	_ = q.mb.enqueue(&event{kind: evReload, ready: q.ready})
	go q.run()
	return q
}

// Name returns the queue's registry name.
func (q *Queue) Name() string { return q.name }

// Ready resolves once the initial reload has completed: true iff recovery
// succeeded. It never carries an error.
func (q *Queue) Ready() *Future[bool] { return q.ready }

// Push stores one record. It fails synchronously on overflow or a sticky
// fault; otherwise the returned Future completes once the actor has written
// the record (and run any flush this push triggered).
func (q *Queue) Push(rec Record) *Future[struct{}] {
	stored := int(q.storedLen.Load())
	pending := q.mb.depth()
	q.metrics.ObserveDepth(stored, pending)
	if stored+pending > q.opts.MaxLength {
		q.metrics.ObserveOverflow()
		return failedFuture[struct{}](&OverflowError{
			Stored:    stored,
			Pending:   pending + 1,
			MaxLength: q.opts.MaxLength,
		})
	}
	if err := q.checkFault(); err != nil {
		return failedFuture[struct{}](err)
	}
	f := newFuture[struct{}]()
	q.submit(&event{kind: evPush, rec: rec, done: f})
	return f
}

// Flush drains all stored records through override (or the configured
// default when nil) and clears them on success.
func (q *Queue) Flush(override FlushFunc) *Future[struct{}] {
	if err := q.checkFault(); err != nil {
		return failedFuture[struct{}](err)
	}
	f := newFuture[struct{}]()
	q.submit(&event{kind: evFlush, drain: override, done: f})
	return f
}

// Length reports the actor-confirmed record count. It reflects every push
// enqueued before it and never touches storage.
func (q *Queue) Length() *Future[int] {
	if err := q.checkFault(); err != nil {
		return failedFuture[int](err)
	}
	f := newFuture[int]()
	q.submit(&event{kind: evLength, count: f})
	return f
}

// List materializes stored records in index order. With growable=true the
// caller receives a copy it may append to; otherwise a fixed-capacity
// snapshot view.
func (q *Queue) List(growable bool) *Future[[]Record] {
	if err := q.checkFault(); err != nil {
		return failedFuture[[]Record](err)
	}
	f := newFuture[[]Record]()
	q.submit(&event{kind: evList, growable: growable, items: f})
	return f
}

// Select lists records matching a CEL expression (see Filter). Compilation
// errors fail fast, before anything is enqueued.
func (q *Queue) Select(expr string) *Future[[]Record] {
	if err := q.checkFault(); err != nil {
		return failedFuture[[]Record](err)
	}
	filter, err := NewFilter(expr)
	if err != nil {
		return failedFuture[[]Record](err)
	}
	f := newFuture[[]Record]()
	q.submit(&event{kind: evList, growable: true, filter: filter, items: f})
	return f
}

// Destroy transitions the queue to its terminal state, optionally erasing
// persisted records first. It is reachable from a Faulted queue; only a
// queue already destroyed rejects it.
func (q *Queue) Destroy(erase bool) *Future[struct{}] {
	if err := q.checkFault(); err != nil && errors.Is(err, ErrDestroyed) {
		return failedFuture[struct{}](err)
	}
	f := newFuture[struct{}]()
	q.submit(&event{kind: evDestroy, erase: erase, done: f})
	return f
}

// submit enqueues ev, failing its future if the mailbox is already closed
// (destroy raced the caller).
func (q *Queue) submit(ev *event) {
	if err := q.mb.enqueue(ev); err != nil {
		ev.fail(err)
	}
}

func (q *Queue) checkFault() error {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	if q.state == stateFaulted || q.state == stateDestroyed {
		return &StickyFaultError{Cause: q.fault}
	}
	return nil
}

func (q *Queue) currentState() state {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	return q.state
}

func (q *Queue) setState(s state, fault error) {
	q.stateMu.Lock()
	q.state = s
	if fault != nil {
		q.fault = fault
	}
	q.stateMu.Unlock()
}

// run is the actor loop: strict FIFO, one event fully handled at a time.
func (q *Queue) run() {
	for {
		ev, ok := q.mb.dequeue()
		if !ok {
			return
		}
		q.dispatch(ev)
	}
}

func (q *Queue) dispatch(ev *event) {
	switch st := q.currentState(); {
	case st == stateDestroyed:
		ev.fail(&StickyFaultError{Cause: q.fault})
		return
	case st == stateFaulted && ev.kind != evDestroy:
		ev.fail(&StickyFaultError{Cause: q.fault})
		return
	}

	ctx := context.Background()
	switch ev.kind {
	case evReload:
		q.handleReload(ctx, ev)
	case evPush:
		q.handlePush(ctx, ev)
	case evFlush:
		q.handleFlush(ctx, ev, ev.done)
	case evLength:
		ev.count.complete(q.length)
	case evList:
		q.handleList(ctx, ev)
	case evDestroy:
		q.handleDestroy(ctx, ev)
	}
}

// handleReload runs once, first: it rebuilds length by probing the
// contiguous index range, or clears storage in no-persist mode. A failure
// faults the queue; the result is reported through Ready, not an error.
func (q *Queue) handleReload(ctx context.Context, ev *event) {
	q.length = 0
	q.storedLen.Store(0)

	err := func() error {
		if err := q.kv.Ready(ctx); err != nil {
			return &StorageError{Op: "ready", Cause: err}
		}
		if q.opts.NoPersist {
			if err := q.kv.Clear(ctx); err != nil {
				return &StorageError{Op: "clear", Cause: err}
			}
			return nil
		}
		for {
			key := strconv.Itoa(q.length)
			_, ok, err := q.kv.Get(ctx, key)
			if err != nil {
				return &StorageError{Op: "get", Key: key, Cause: err}
			}
			if !ok {
				return nil
			}
			q.length++
		}
	}()
	if err != nil {
		q.setState(stateFaulted, &ReloadError{Cause: err})
		q.metrics.ObserveFault()
		q.logger.Error("reload failed", logpkg.Err(err))
		ev.ready.complete(false)
		return
	}

	q.storedLen.Store(int64(q.length))
	q.setState(stateReady, nil)
	q.logger.Info("queue ready", logpkg.Int("length", q.length), logpkg.Bool("persistent", !q.opts.NoPersist))
	ev.ready.complete(true)
}

// handlePush writes the record at the next index and runs a flush through
// the push's own future when the count threshold or deadline fires. A write
// failure fails this push only; it is not fatal to the queue.
func (q *Queue) handlePush(ctx context.Context, ev *event) {
	val, err := EncodeRecord(ev.rec)
	if err != nil {
		ev.done.fail(&StorageError{Op: "encode", Cause: err})
		return
	}
	key := strconv.Itoa(q.length)
	if err := q.kv.Set(ctx, key, val); err != nil {
		ev.done.fail(&StorageError{Op: "set", Key: key, Cause: err})
		return
	}
	q.length++
	q.storedLen.Store(int64(q.length))
	q.metrics.ObservePush()

	if q.length == 1 {
		q.deadline = q.now().Add(q.opts.FlushTimeout)
	}
	if q.length >= q.opts.FlushAt || (!q.deadline.IsZero() && !q.now().Before(q.deadline)) {
		q.handleFlush(ctx, &event{kind: evFlush}, ev.done)
		return
	}
	ev.done.complete(struct{}{})
}

// handleFlush materializes the batch, hands it to the effective drain, and
// clears storage only after the drain accepted it.
func (q *Queue) handleFlush(ctx context.Context, ev *event, res *Future[struct{}]) {
	start := q.now()
	records, err := q.materialize(ctx)
	if err != nil {
		res.fail(err)
		return
	}

	drain := ev.drain
	if drain == nil {
		drain = q.opts.OnFlush
	}
	batch := q.ids.Next()
	if drain != nil {
		if err := drain(ctx, records); err != nil {
			q.logger.Warn("flush drain failed",
				logpkg.Str("batch", batch.String()),
				logpkg.Int("records", len(records)),
				logpkg.Err(err))
			res.fail(&FlushError{Cause: err})
			return
		}
	}
	if err := q.kv.Clear(ctx); err != nil {
		res.fail(&StorageError{Op: "clear", Cause: err})
		return
	}

	q.length = 0
	q.storedLen.Store(0)
	q.deadline = time.Time{}
	q.metrics.ObserveFlush(len(records), q.now().Sub(start))
	q.logger.Debug("flushed",
		logpkg.Str("batch", batch.String()),
		logpkg.Int("records", len(records)))
	res.complete(struct{}{})
}

func (q *Queue) handleList(ctx context.Context, ev *event) {
	records, err := q.materialize(ctx)
	if err != nil {
		ev.items.fail(err)
		return
	}
	if ev.filter != nil {
		kept := records[:0]
		for i, rec := range records {
			if ev.filter.Match(i, rec) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	if !ev.growable {
		records = records[:len(records):len(records)]
	}
	ev.items.complete(records)
}

// handleDestroy always completes the terminal transition: deregistration and
// the sticky fault happen even when erasing storage failed, and that failure
// is still reported to the caller.
func (q *Queue) handleDestroy(ctx context.Context, ev *event) {
	var clearErr error
	if ev.erase {
		if err := q.kv.Clear(ctx); err != nil {
			clearErr = &StorageError{Op: "clear", Cause: err}
		}
	}
	if q.opts.OnDestroy != nil {
		q.opts.OnDestroy()
	}
	q.setState(stateDestroyed, ErrDestroyed)
	q.storedLen.Store(0)
	q.mb.close(&StickyFaultError{Cause: ErrDestroyed})
	q.logger.Info("queue destroyed",
		logpkg.Bool("erased", ev.erase && clearErr == nil))

	if clearErr != nil {
		ev.done.fail(clearErr)
		return
	}
	ev.done.complete(struct{}{})
}

// materialize reads records at keys 0..length-1 in index order.
func (q *Queue) materialize(ctx context.Context) ([]Record, error) {
	out := make([]Record, 0, q.length)
	for i := 0; i < q.length; i++ {
		key := strconv.Itoa(i)
		val, ok, err := q.kv.Get(ctx, key)
		if err != nil {
			return nil, &StorageError{Op: "get", Key: key, Cause: err}
		}
		if !ok {
			return nil, &StorageError{Op: "get", Key: key, Cause: errors.New("missing record in contiguous range")}
		}
		rec, err := DecodeRecord(val)
		if err != nil {
			return nil, &StorageError{Op: "decode", Key: key, Cause: err}
		}
		out = append(out, rec)
	}
	return out, nil
}
