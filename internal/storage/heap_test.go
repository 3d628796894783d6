package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/storage"
)

func TestHeapWriteReadUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.heap")
	h, created, err := storage.OpenHeap[int32](path, 2, int32Codec())
	require.NoError(t, err)
	require.True(t, created)

	off1, err := h.Write(10)
	require.NoError(t, err)
	off2, err := h.Write(20)
	require.NoError(t, err)
	require.NotEqual(t, off1, off2)

	v, err := h.Read(off1)
	require.NoError(t, err)
	require.Equal(t, int32(10), v)

	require.NoError(t, h.Update(99, off1))
	v, err = h.Read(off1)
	require.NoError(t, err)
	require.Equal(t, int32(99), v)

	require.NoError(t, h.WriteInfo(1, 1234))
	info, err := h.GetInfo(1)
	require.NoError(t, err)
	require.Equal(t, int64(1234), info)

	require.NoError(t, h.Close())

	reopened, created, err := storage.OpenHeap[int32](path, 2, int32Codec())
	require.NoError(t, err)
	require.False(t, created)
	info, err = reopened.GetInfo(1)
	require.NoError(t, err)
	require.Equal(t, int64(1234), info)
}

func TestHeapDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.heap")
	h, _, err := storage.OpenHeap[int32](path, 0, int32Codec())
	require.NoError(t, err)

	off1, err := h.Write(1)
	require.NoError(t, err)
	_, err = h.Write(2)
	require.NoError(t, err)
	off3, err := h.Write(3)
	require.NoError(t, err)

	require.NoError(t, h.Delete(off1))

	v, err := h.Read(off1)
	require.NoError(t, err)
	require.Equal(t, int32(3), v, "tail record should have moved into the deleted slot")
	_ = off3
}
