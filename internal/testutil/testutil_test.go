package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDGenerator_ReturnsInOrderThenRepeatsLast(t *testing.T) {
	gen := NewFixedIDGenerator("dev-1", "dev-2")

	assert.Equal(t, "dev-1", gen.Generate())
	assert.Equal(t, "dev-2", gen.Generate())
	assert.Equal(t, "dev-2", gen.Generate())
}

func TestFixedIDGenerator_EmptyDefault(t *testing.T) {
	gen := NewFixedIDGenerator()
	assert.Equal(t, "test-device-default", gen.Generate())
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("thread-safe-id")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-id", gen.Generate())
			}
		}()
	}
	wg.Wait()
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}

func TestFaultyKV(t *testing.T) {
	ctx := context.Background()
	kv := NewFaultyKV(nil)

	require.NoError(t, kv.Set(ctx, "k", "v"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	kv.FailReads(true)
	_, _, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	kv.FailWrites(true)
	assert.ErrorIs(t, kv.Set(ctx, "k", "w"), ErrQuotaExceeded)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), ErrQuotaExceeded)

	assert.Equal(t, 3, kv.Writes())
	assert.Equal(t, 2, kv.Reads())
}
