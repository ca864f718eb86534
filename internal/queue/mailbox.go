package queue

import (
	"sync"
	"sync/atomic"
)

// mailbox is the unbounded, order-preserving queue of pending events.
// Any number of producers may enqueue; exactly one consumer dequeues.
// Once closed, enqueue fails with the terminal error and dequeue drains
// what remains before reporting exhaustion.
type mailbox struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []*event
	closed   bool
	closeErr error
	size     atomic.Int64
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.notEmpty = sync.NewCond(&m.mu)
	return m
}

// enqueue appends ev in arrival order. Returns the terminal error after close.
func (m *mailbox) enqueue(ev *event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return m.closeErr
	}
	m.items = append(m.items, ev)
	m.size.Add(1)
	m.notEmpty.Signal()
	return nil
}

// dequeue blocks until an event is available, returning ok=false only when
// the mailbox is closed and fully drained.
func (m *mailbox) dequeue() (*event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.items) == 0 && !m.closed {
		m.notEmpty.Wait()
	}
	if len(m.items) == 0 {
		return nil, false
	}
	ev := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	if len(m.items) == 0 {
		m.items = nil
	}
	m.size.Add(-1)
	return ev, true
}

// close marks the mailbox terminal. Events already enqueued still drain.
func (m *mailbox) close(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.closeErr = err
	m.notEmpty.Broadcast()
}

// depth is a snapshot of the pending event count, used by the facade's
// advisory overflow check.
func (m *mailbox) depth() int { return int(m.size.Load()) }
