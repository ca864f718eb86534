// Package runtime wires storage, config, metrics, and the queue registry
// into a single-node batchq instance. It exposes Open/Close, basic health
// checks, and the OpenQueue entry point callers use to obtain live queues.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	q, _ := rt.OpenQueue("orders", runtime.QueueOptions{FlushAt: 50})
//	q.Push(queue.Record{"user": "u-17"})
package runtime
