// Package pebblestore provides a thin wrapper around Pebble with fsync
// policy, batches, ranged deletes, and minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Point ops
//	_ = db.Set([]byte("k"), []byte("v"))
//	v, _ := db.Get([]byte("k"))
//
//	// Clearing a namespace
//	_ = db.DeleteRange([]byte("q/a/"), []byte("q/a/\xff"))
package pebblestore
