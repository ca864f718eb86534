// Package queue implements a durable, ordered, batch-flushing queue whose
// operations are serialized by a single-consumer event actor.
//
// Every public call on a Queue becomes an event appended to an unbounded
// FIFO mailbox and returns a Future immediately. One goroutine per queue
// drains the mailbox, fully awaiting each handler (including storage I/O)
// before dequeuing the next, so pushes, flushes, listings, and length
// queries never interleave and no locking is needed around queue state.
//
// # Lifecycle
//
// A queue starts Initializing with one Reload event pre-enqueued ahead of
// any caller event; Reload rebuilds the record count from the contiguous
// "0","1",... keys in the backing store (or clears it in no-persist mode).
// Reload failure moves the queue to Faulted: every later event except
// Destroy fails with the sticky fault. Destroy is terminal: it optionally
// erases stored records, deregisters the queue, and closes the mailbox so
// stale references fail deterministically.
//
// # Flushing
//
// Records accumulate until FlushAt is reached or the oldest record's
// FlushTimeout deadline passes, at which point the triggering push runs a
// flush and reports the outcome through its own Future. Records are cleared
// only after the drain callback returns success; a failed drain leaves
// storage and length untouched so a retry drains the same batch
// (at-least-once).
package queue
