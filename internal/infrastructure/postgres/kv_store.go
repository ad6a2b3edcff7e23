package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/scent-recommender/internal/domain/repository"
)

// KVStore keeps key/value pairs in the kv_store table.
type KVStore struct {
	pool *pgxpool.Pool
}

func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

// Update serializes writers on key with a transaction-scoped advisory lock,
// which also covers the case where the row does not exist yet.
func (s *KVStore) Update(ctx context.Context, key string, fn func([]byte, bool) ([]byte, error)) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return err
	}

	var current []byte
	found := true
	err = tx.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
	} else if err != nil {
		return err
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (s *KVStore) Close() error { return nil }

var _ repository.KVStore = (*KVStore)(nil)
