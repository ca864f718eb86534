package store

import (
	"context"
	"sync"
)

// MemoryKV is an in-process KV namespace. It backs ephemeral queues and
// tests; values survive nothing, but the contract matches PebbleKV.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory namespace.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Ready implements KV.
func (s *MemoryKV) Ready(ctx context.Context) error { return ctx.Err() }

// Get implements KV.
func (s *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KV.
func (s *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Clear implements KV.
func (s *MemoryKV) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

// Len reports the number of stored keys. Test helper.
func (s *MemoryKV) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
