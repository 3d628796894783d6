package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/storage"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []int64
	cache := storage.NewLRUCache[string](2, func(offset int64, value string) error {
		evicted = append(evicted, offset)
		return nil
	})

	require.NoError(t, cache.Put(1, "a", true))
	require.NoError(t, cache.Put(2, "b", true))
	// touch 1 so 2 becomes the least recently used
	_, ok := cache.Get(1)
	require.True(t, ok)
	require.NoError(t, cache.Put(3, "c", true))

	require.Equal(t, []int64{2}, evicted)
	_, ok = cache.Get(2)
	require.False(t, ok)
}

func TestLRUCacheCleanEntriesAreNotFlushed(t *testing.T) {
	var evicted []int64
	cache := storage.NewLRUCache[string](1, func(offset int64, value string) error {
		evicted = append(evicted, offset)
		return nil
	})
	require.NoError(t, cache.Put(1, "a", false))
	require.NoError(t, cache.Put(2, "b", false))
	require.Empty(t, evicted)
}

func TestLRUCacheFlush(t *testing.T) {
	flushed := map[int64]string{}
	cache := storage.NewLRUCache[string](10, func(offset int64, value string) error {
		flushed[offset] = value
		return nil
	})
	require.NoError(t, cache.Put(1, "a", true))
	require.NoError(t, cache.Put(2, "b", false))
	require.NoError(t, cache.Flush())
	require.Equal(t, map[int64]string{1: "a"}, flushed)
}
