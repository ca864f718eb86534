package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/batchq/internal/config"
	"github.com/rzbill/batchq/internal/queue"
	pebblestore "github.com/rzbill/batchq/internal/storage/pebble"
)

func openRuntime(t *testing.T, cfg cfgpkg.Config) *Runtime {
	t.Helper()
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func waitReady(t *testing.T, q *queue.Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := q.Ready().Wait(ctx)
	if err != nil || !ok {
		t.Fatalf("queue not ready: ok=%v err=%v", ok, err)
	}
}

func TestOpenCloseHealth(t *testing.T) {
	rt := openRuntime(t, cfgpkg.Default())
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenQueueReturnsSameInstance(t *testing.T) {
	rt := openRuntime(t, cfgpkg.Default())
	a, err := rt.OpenQueue("orders", QueueOptions{})
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	waitReady(t, a)
	b, err := rt.OpenQueue("orders", QueueOptions{FlushAt: 1})
	if err != nil {
		t.Fatalf("reopen queue: %v", err)
	}
	if a != b {
		t.Fatalf("second open returned a different instance")
	}
	if got := rt.Queues(); len(got) != 1 || got[0] != "orders" {
		t.Fatalf("queues = %v", got)
	}
}

func TestOpenQueueRejectsInvalidName(t *testing.T) {
	rt := openRuntime(t, cfgpkg.Default())
	for _, name := range []string{"", "Has Spaces", "UPPER", "a/b"} {
		if _, err := rt.OpenQueue(name, QueueOptions{}); !errors.Is(err, ErrInvalidQueueName) {
			t.Fatalf("name %q: err = %v", name, err)
		}
	}
}

func TestOpenQueueEnforcesLimit(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.MaxQueues = 2
	rt := openRuntime(t, cfg)
	for _, name := range []string{"a", "b"} {
		if _, err := rt.OpenQueue(name, QueueOptions{}); err != nil {
			t.Fatalf("open %q: %v", name, err)
		}
	}
	if _, err := rt.OpenQueue("c", QueueOptions{}); !errors.Is(err, ErrQueueLimit) {
		t.Fatalf("limit err = %v", err)
	}
	// Reopening a live queue does not count against the limit.
	if _, err := rt.OpenQueue("a", QueueOptions{}); err != nil {
		t.Fatalf("reopen under limit: %v", err)
	}
}

func TestDestroyDeregisters(t *testing.T) {
	rt := openRuntime(t, cfgpkg.Default())
	q, err := rt.OpenQueue("orders", QueueOptions{})
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	waitReady(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := q.Destroy(true).Wait(ctx); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, ok := rt.GetQueue("orders"); ok {
		t.Fatalf("destroyed queue still registered")
	}

	// The name is reusable with a fresh instance.
	q2, err := rt.OpenQueue("orders", QueueOptions{})
	if err != nil {
		t.Fatalf("reopen after destroy: %v", err)
	}
	if q2 == q {
		t.Fatalf("reopen returned the destroyed instance")
	}
	waitReady(t, q2)
}

func TestConfiguredDefaultsApply(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.QueueDefaults.FlushAt = 2
	rt := openRuntime(t, cfg)

	var drained []queue.Record
	q, err := rt.OpenQueue("orders", QueueOptions{
		OnFlush: func(ctx context.Context, records []queue.Record) error {
			drained = records
			return nil
		},
	})
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	waitReady(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := q.Push(queue.Record{"n": 0}).Wait(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := q.Push(queue.Record{"n": 1}).Wait(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(drained) != 2 {
		t.Fatalf("configured flushAt ignored: drained %d", len(drained))
	}
}
