package store

import (
	"context"
	"errors"
	"fmt"

	pebblestore "github.com/rzbill/batchq/internal/storage/pebble"
)

// PebbleKV is a KV namespace backed by a shared Pebble database. Each queue
// gets its own prefix so Clear stays a single ranged delete.
//
// Key layout: q/{queue}/rec/{key}
type PebbleKV struct {
	db     *pebblestore.DB
	prefix []byte
}

// NewPebbleKV returns the namespace for the given queue name.
func NewPebbleKV(db *pebblestore.DB, queue string) *PebbleKV {
	return &PebbleKV{
		db:     db,
		prefix: []byte(fmt.Sprintf("q/%s/rec/", queue)),
	}
}

func (s *PebbleKV) key(k string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	out = append(out, k...)
	return out
}

// Ready implements KV. It verifies the database accepts iterators.
func (s *PebbleKV) Ready(ctx context.Context) error {
	if s.db == nil {
		return errors.New("store: pebble db not open")
	}
	it, err := s.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Get implements KV.
func (s *PebbleKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.db.Get(s.key(key))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set implements KV.
func (s *PebbleKV) Set(ctx context.Context, key string, value []byte) error {
	return s.db.Set(s.key(key), value)
}

// Clear implements KV. It drops the whole namespace in one ranged delete.
func (s *PebbleKV) Clear(ctx context.Context) error {
	hi := append(append([]byte{}, s.prefix...), 0xFF)
	return s.db.DeleteRange(s.prefix, hi)
}
