package seatmap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/seatmap"
)

func TestReserveBookReleaseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := seatmap.Open(dir, 8)
	require.NoError(t, err)
	defer store.Close()

	start := model.Date{Month: 6, Day: 1}
	end := model.Date{Month: 6, Day: 3}
	numDays := end.DiffDays(start) + 1

	base, err := store.Reserve(5, 10, numDays)
	require.NoError(t, err)

	for d := 0; d < numDays; d++ {
		date := start.AddDays(d)
		avail, err := store.Available(base, start, date, 0, 1)
		require.NoError(t, err)
		require.Equal(t, 10, avail)
	}

	mid := start.AddDays(1)
	ok, err := store.Book(base, start, mid, 0, 3, 4)
	require.NoError(t, err)
	require.True(t, ok)

	avail, err := store.Available(base, start, mid, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 6, avail)

	// a disjoint day is untouched
	avail, err = store.Available(base, start, start, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 10, avail)

	require.NoError(t, store.Release(base, start, mid, 0, 3, 4))
	avail, err = store.Available(base, start, mid, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 10, avail)
}

func TestBookInsufficientCapacityNoStateChange(t *testing.T) {
	dir := t.TempDir()
	store, err := seatmap.Open(dir, 8)
	require.NoError(t, err)
	defer store.Close()

	date := model.Date{Month: 1, Day: 1}
	base, err := store.Reserve(3, 5, 1)
	require.NoError(t, err)

	ok, err := store.Book(base, date, date, 0, 2, 6)
	require.NoError(t, err)
	require.False(t, ok)

	avail, err := store.Available(base, date, date, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 5, avail)
}

func TestReopenPersistsSeatState(t *testing.T) {
	dir := t.TempDir()
	date := model.Date{Month: 3, Day: 10}

	store, err := seatmap.Open(dir, 8)
	require.NoError(t, err)
	base, err := store.Reserve(4, 8, 1)
	require.NoError(t, err)
	ok, err := store.Book(base, date, date, 0, 1, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Close())

	reopened, err := seatmap.Open(dir, 8)
	require.NoError(t, err)
	defer reopened.Close()
	avail, err := reopened.Available(base, date, date, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 5, avail)
}
