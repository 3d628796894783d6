package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
)

func testOpts() storage.Options {
	return storage.Options{Order: 4, LeafSize: 4, IndexCacheCap: 4, LeafCacheCap: 4}
}

func sampleTrain(id string) model.Train {
	tr := model.Train{
		TrainID:       id,
		StationNum:    3,
		SeatNum:       20,
		SaleDateStart: model.Date{Month: 1, Day: 1},
		SaleDateEnd:   model.Date{Month: 12, Day: 1},
		SeatMapPos:    -1,
	}
	tr.Stations[0], tr.Stations[1], tr.Stations[2] = "A", "B", "C"
	tr.Prices[0], tr.Prices[1], tr.Prices[2] = 0, 10, 25
	return tr
}

func TestAddQueryDeleteTrain(t *testing.T) {
	dir := t.TempDir()
	store, err := catalog.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	tr := sampleTrain("G1")
	require.NoError(t, store.Add(tr))
	require.ErrorIs(t, store.Add(tr), catalog.ErrTrainExists)

	got, err := store.Query("G1")
	require.NoError(t, err)
	require.Equal(t, tr.StationNum, got.StationNum)

	_, err = store.Query("nope")
	require.ErrorIs(t, err, catalog.ErrTrainNotFound)

	require.NoError(t, store.Delete("G1"))
	_, err = store.Query("G1")
	require.ErrorIs(t, err, catalog.ErrTrainNotFound)
}

func TestReleaseIndexesStationsAndRoutes(t *testing.T) {
	dir := t.TempDir()
	store, err := catalog.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	tr := sampleTrain("G2")
	require.NoError(t, store.Add(tr))

	_, err = store.Release("G2", 1024)
	require.NoError(t, err)

	_, err = store.Release("G2", 2048)
	require.ErrorIs(t, err, catalog.ErrAlreadyReleased)

	atB, err := store.QueryByStation("B")
	require.NoError(t, err)
	require.Len(t, atB, 1)
	require.Equal(t, "G2", atB[0].TrainID)

	route, err := store.QueryRoute("A", "C")
	require.NoError(t, err)
	require.Len(t, route, 1)
	require.True(t, route[0].IsReleased)
	require.Equal(t, int64(1024), route[0].SeatMapPos)

	require.ErrorIs(t, store.Delete("G2"), catalog.ErrAlreadyReleased)
}

func TestQueryRouteOnlyMatchesOrderedPairs(t *testing.T) {
	dir := t.TempDir()
	store, err := catalog.Open(dir, testOpts())
	require.NoError(t, err)
	defer store.Close()

	tr := sampleTrain("G3")
	require.NoError(t, store.Add(tr))
	_, err = store.Release("G3", 0)
	require.NoError(t, err)

	reverse, err := store.QueryRoute("C", "A")
	require.NoError(t, err)
	require.Empty(t, reverse)
}
