package rediskv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/scent-recommender/internal/domain/repository"
)

// ErrConflict is returned when Update loses the optimistic race too many times.
var ErrConflict = errors.New("kv update conflict")

const defaultMaxRetries = 5

// KVStore stores values as plain redis strings without expiry.
type KVStore struct {
	rdb        *redis.Client
	maxRetries int
}

func NewKVStore(rdb *redis.Client) *KVStore {
	return &KVStore{rdb: rdb, maxRetries: defaultMaxRetries}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

// Update uses WATCH/MULTI so a concurrent writer on key forces a retry
// instead of a lost update.
func (s *KVStore) Update(ctx context.Context, key string, fn func([]byte, bool) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			current, found = nil, false
		} else if err != nil {
			return err
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Close is a no-op; the client is shared with sessions and rate limiting.
func (s *KVStore) Close() error { return nil }

var _ repository.KVStore = (*KVStore)(nil)
