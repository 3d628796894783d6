package orders_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/orders"
	"github.com/railbook/engine/internal/storage"
)

func testOpts() storage.Options {
	return storage.Options{Order: 4, LeafSize: 4, IndexCacheCap: 4, LeafCacheCap: 4}
}

func sampleOrder(username string, status model.OrderStatus) model.Order {
	return model.Order{
		Username:     username,
		TrainID:      "G1",
		OriginDate:   model.Date{Month: 5, Day: 1},
		FromStation:  "A",
		FromIndex:    0,
		ToStation:    "B",
		ToIndex:      1,
		TicketNum:    2,
		PricePerSeat: 10,
		Status:       status,
	}
}

func TestAddAndListByUserIsChronological(t *testing.T) {
	dir := t.TempDir()
	store, err := orders.Open(dir, testOpts(), 8)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Add(sampleOrder("alice", model.StatusSuccess))
	require.NoError(t, err)
	_, err = store.Add(sampleOrder("bob", model.StatusSuccess))
	require.NoError(t, err)
	_, err = store.Add(sampleOrder("alice", model.StatusPending))
	require.NoError(t, err)

	refs, err := store.ListByUser("alice")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, model.StatusSuccess, refs[0].Order.Status)
	require.Equal(t, model.StatusPending, refs[1].Order.Status)
}

func TestPendingIndexAndRemoval(t *testing.T) {
	dir := t.TempDir()
	store, err := orders.Open(dir, testOpts(), 8)
	require.NoError(t, err)
	defer store.Close()

	o := sampleOrder("alice", model.StatusPending)
	offset, err := store.Add(o)
	require.NoError(t, err)

	pending, err := store.ListPending(o.UniTrain())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.UpdateStatus(offset, model.StatusSuccess))
	require.NoError(t, store.RemovePending(offset, o))

	pending, err = store.ListPending(o.UniTrain())
	require.NoError(t, err)
	require.Empty(t, pending)

	updated, err := store.Read(offset)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuccess, updated.Status)
}
