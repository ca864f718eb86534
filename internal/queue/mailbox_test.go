package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMailboxFIFO(t *testing.T) {
	m := newMailbox()
	for i := 0; i < 10; i++ {
		if err := m.enqueue(&event{kind: evLength, count: completedFuture(i)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if m.depth() != 10 {
		t.Fatalf("depth = %d", m.depth())
	}
	for i := 0; i < 10; i++ {
		ev, ok := m.dequeue()
		if !ok {
			t.Fatalf("dequeue %d: closed", i)
		}
		got, _ := ev.count.Wait(context.Background())
		if got != i {
			t.Fatalf("dequeue %d: got %d", i, got)
		}
	}
	if m.depth() != 0 {
		t.Fatalf("depth after drain = %d", m.depth())
	}
}

func TestMailboxConcurrentProducers(t *testing.T) {
	m := newMailbox()
	const producers, each = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if err := m.enqueue(&event{kind: evLength}); err != nil {
					t.Errorf("enqueue: %v", err)
					return
				}
			}
		}()
	}

	got := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for got < producers*each {
			if _, ok := m.dequeue(); !ok {
				return
			}
			got++
		}
	}()
	wg.Wait()
	<-done
	if got != producers*each {
		t.Fatalf("consumed %d of %d", got, producers*each)
	}
}

func TestMailboxCloseDrainsThenStops(t *testing.T) {
	m := newMailbox()
	m.enqueue(&event{kind: evLength})
	m.enqueue(&event{kind: evLength})
	terminal := errors.New("terminal")
	m.close(terminal)

	if err := m.enqueue(&event{kind: evLength}); !errors.Is(err, terminal) {
		t.Fatalf("enqueue after close = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, ok := m.dequeue(); !ok {
			t.Fatalf("close dropped buffered event %d", i)
		}
	}
	if _, ok := m.dequeue(); ok {
		t.Fatalf("dequeue produced an event after drain")
	}
}
