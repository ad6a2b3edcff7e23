package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, ok, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "users", []byte(`{}`)))
	v, ok, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{}`), v)

	v[0] = 'x'
	again, _, _ := s.Get(ctx, "users")
	assert.Equal(t, []byte(`{}`), again)
}

func TestKVStore_UpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()
	require.NoError(t, s.Set(ctx, "k", []byte("a")))

	boom := errors.New("boom")
	err := s.Update(ctx, "k", func([]byte, bool) ([]byte, error) { return []byte("b"), boom })
	assert.ErrorIs(t, err, boom)

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("a"), v)
}

func TestKVStore_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "n", func(cur []byte, _ bool) ([]byte, error) {
				return append(cur, '.'), nil
			})
		}()
	}
	wg.Wait()

	v, _, _ := s.Get(ctx, "n")
	assert.Len(t, v, 50)
}
