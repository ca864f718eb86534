package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureCompleteOnce(t *testing.T) {
	f := newFuture[int]()
	f.complete(7)
	f.complete(8)
	f.fail(errors.New("late"))

	v, err := f.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if v != 7 {
		t.Fatalf("value = %d, want first completion", v)
	}
}

func TestFutureWaitCancel(t *testing.T) {
	f := newFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wait = %v, want deadline exceeded", err)
	}

	// Abandoning the wait does not consume the result.
	f.complete(1)
	v, err := f.Wait(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("second wait = %d, %v", v, err)
	}
}

func TestFutureMultipleWaiters(t *testing.T) {
	f := newFuture[string]()
	results := make(chan string, 3)
	for i := 0; i < 3; i++ {
		go func() {
			v, _ := f.Wait(context.Background())
			results <- v
		}()
	}
	f.complete("done")
	for i := 0; i < 3; i++ {
		if v := <-results; v != "done" {
			t.Fatalf("waiter %d got %q", i, v)
		}
	}
}
