// Package memory provides a process-local KV driver for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/scent-recommender/internal/domain/repository"
)

type KVStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	return nil
}

func (s *KVStore) Update(_ context.Context, key string, fn func([]byte, bool) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[key]
	next, err := fn(clone(cur), ok)
	if err != nil {
		return err
	}
	s.data[key] = clone(next)
	return nil
}

func (s *KVStore) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ repository.KVStore = (*KVStore)(nil)
