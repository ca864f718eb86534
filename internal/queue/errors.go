package queue

import (
	"errors"
	"fmt"
)

// ErrDestroyed is the sticky cause recorded when a queue is destroyed.
var ErrDestroyed = errors.New("queue: destroyed")

// ErrCorruptRecord reports a stored value whose checksum did not verify.
var ErrCorruptRecord = errors.New("queue: corrupt record")

// OverflowError is returned synchronously by Push when stored plus pending
// records would exceed the queue's soft capacity bound.
type OverflowError struct {
	Stored    int
	Pending   int
	MaxLength int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("queue: overflow: %d stored + %d pending exceeds max length %d",
		e.Stored, e.Pending, e.MaxLength)
}

// StickyFaultError is returned for every operation issued against a Faulted
// or Destroyed queue. Cause is the original fault.
type StickyFaultError struct {
	Cause error
}

func (e *StickyFaultError) Error() string { return "queue: unusable: " + e.Cause.Error() }
func (e *StickyFaultError) Unwrap() error { return e.Cause }

// ReloadError is the sticky cause recorded when startup recovery could not
// establish a consistent length.
type ReloadError struct {
	Cause error
}

func (e *ReloadError) Error() string { return "queue: reload failed: " + e.Cause.Error() }
func (e *ReloadError) Unwrap() error { return e.Cause }

// StorageError reports a single failed get/set/clear against the backing
// store. It does not fault the queue.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("queue: storage %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("queue: storage %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// FlushError reports a drain callback that returned an error. Stored records
// and length are left untouched so the flush can be retried.
type FlushError struct {
	Cause error
}

func (e *FlushError) Error() string { return "queue: flush drain: " + e.Cause.Error() }
func (e *FlushError) Unwrap() error { return e.Cause }
