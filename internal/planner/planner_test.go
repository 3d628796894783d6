package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/planner"
	"github.com/railbook/engine/internal/seatmap"
	"github.com/railbook/engine/internal/storage"
)

func testOpts() storage.Options {
	return storage.Options{Order: 4, LeafSize: 4, IndexCacheCap: 4, LeafCacheCap: 4}
}

// buildCatalog releases three trains: G1 runs A->B->C directly, G2 and G3
// together let a transfer through B connect A to D.
func buildCatalog(t *testing.T) (*catalog.Store, *seatmap.Store) {
	t.Helper()
	dir := t.TempDir()
	cat, err := catalog.Open(dir, testOpts())
	require.NoError(t, err)
	seats, err := seatmap.Open(dir, 8)
	require.NoError(t, err)

	g1 := model.Train{
		TrainID: "G1", StationNum: 3, SeatNum: 10,
		SaleDateStart: model.Date{Month: 1, Day: 1}, SaleDateEnd: model.Date{Month: 12, Day: 1},
	}
	g1.Stations[0], g1.Stations[1], g1.Stations[2] = "A", "B", "C"
	g1.DepartureTimes[0] = model.Time{Hour: 8, Minute: 0}
	g1.ArrivalTimes[1] = model.Time{Hour: 9, Minute: 0}
	g1.DepartureTimes[1] = model.Time{Hour: 9, Minute: 10}
	g1.ArrivalTimes[2] = model.Time{Hour: 10, Minute: 0}
	g1.Prices[0], g1.Prices[1], g1.Prices[2] = 0, 20, 40
	require.NoError(t, cat.Add(g1))
	base1, err := seats.Reserve(g1.StationNum, g1.SeatNum, 366)
	require.NoError(t, err)
	_, err = cat.Release("G1", base1)
	require.NoError(t, err)

	g2 := model.Train{
		TrainID: "G2", StationNum: 2, SeatNum: 10,
		SaleDateStart: model.Date{Month: 1, Day: 1}, SaleDateEnd: model.Date{Month: 12, Day: 1},
	}
	g2.Stations[0], g2.Stations[1] = "A", "B"
	g2.DepartureTimes[0] = model.Time{Hour: 6, Minute: 0}
	g2.ArrivalTimes[1] = model.Time{Hour: 7, Minute: 0}
	g2.Prices[0], g2.Prices[1] = 0, 15
	require.NoError(t, cat.Add(g2))
	base2, err := seats.Reserve(g2.StationNum, g2.SeatNum, 366)
	require.NoError(t, err)
	_, err = cat.Release("G2", base2)
	require.NoError(t, err)

	g3 := model.Train{
		TrainID: "G3", StationNum: 2, SeatNum: 10,
		SaleDateStart: model.Date{Month: 1, Day: 1}, SaleDateEnd: model.Date{Month: 12, Day: 1},
	}
	g3.Stations[0], g3.Stations[1] = "B", "D"
	g3.DepartureTimes[0] = model.Time{Hour: 8, Minute: 0}
	g3.ArrivalTimes[1] = model.Time{Hour: 9, Minute: 0}
	g3.Prices[0], g3.Prices[1] = 0, 25
	require.NoError(t, cat.Add(g3))
	base3, err := seats.Reserve(g3.StationNum, g3.SeatNum, 366)
	require.NoError(t, err)
	_, err = cat.Release("G3", base3)
	require.NoError(t, err)

	return cat, seats
}

func TestQueryDirect(t *testing.T) {
	cat, seats := buildCatalog(t)
	date := model.Date{Month: 6, Day: 1}

	tickets, err := planner.QueryDirect(cat, seats, "A", "C", date, planner.ByTime)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Equal(t, "G1", tickets[0].TrainID)
	require.Equal(t, 40, tickets[0].Price)
	require.Equal(t, 10, tickets[0].SeatsLeft)
}

func TestQueryDirectNoRoute(t *testing.T) {
	cat, seats := buildCatalog(t)
	date := model.Date{Month: 6, Day: 1}

	tickets, err := planner.QueryDirect(cat, seats, "C", "A", date, planner.ByTime)
	require.NoError(t, err)
	require.Empty(t, tickets)
}

func TestQueryTransferFindsTwoLegRoute(t *testing.T) {
	cat, seats := buildCatalog(t)
	date := model.Date{Month: 6, Day: 1}

	transfer, ok, err := planner.QueryTransfer(cat, seats, "A", "D", date, planner.ByTime)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "G2", transfer.Leg1.TrainID)
	require.Equal(t, "G3", transfer.Leg2.TrainID)
	require.Equal(t, 40, transfer.TotalPrice())
}

func TestQueryTransferNoConnection(t *testing.T) {
	cat, seats := buildCatalog(t)
	date := model.Date{Month: 6, Day: 1}

	_, ok, err := planner.QueryTransfer(cat, seats, "C", "D", date, planner.ByTime)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestQueryTransferSaleWindowClamp exercises leg2's sale-date edge: H2's
// sale window doesn't open until well after leg1 (H1) arrives at the
// transfer station, and H2 departs earlier in the day than that arrival.
// Shifting H2's day back from the arrival would land before its sale
// window opens; QueryTransfer must instead clamp onto H2's first sale
// day. (query_ticket's single-leg search does not clamp: it skips trains
// whose sale window does not cover the requested date.)
func TestQueryTransferSaleWindowClamp(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(dir, testOpts())
	require.NoError(t, err)
	seats, err := seatmap.Open(dir, 8)
	require.NoError(t, err)

	h1 := model.Train{
		TrainID: "H1", StationNum: 2, SeatNum: 10,
		SaleDateStart: model.Date{Month: 6, Day: 8}, SaleDateEnd: model.Date{Month: 6, Day: 20},
	}
	h1.Stations[0], h1.Stations[1] = "S", "M"
	h1.DepartureTimes[0] = model.Time{Hour: 8, Minute: 0}
	h1.ArrivalTimes[1] = model.Time{Hour: 10, Minute: 0}
	h1.Prices[0], h1.Prices[1] = 0, 10
	require.NoError(t, cat.Add(h1))
	base1, err := seats.Reserve(h1.StationNum, h1.SeatNum, 366)
	require.NoError(t, err)
	_, err = cat.Release("H1", base1)
	require.NoError(t, err)

	// H2 departs M at 06:00, earlier in the day than H1's 10:00 arrival,
	// but its sale window only opens on 06-15 — five days after H1's
	// 06-10 arrival.
	h2 := model.Train{
		TrainID: "H2", StationNum: 2, SeatNum: 10,
		SaleDateStart: model.Date{Month: 6, Day: 15}, SaleDateEnd: model.Date{Month: 6, Day: 25},
	}
	h2.Stations[0], h2.Stations[1] = "M", "T"
	h2.DepartureTimes[0] = model.Time{Hour: 6, Minute: 0}
	h2.ArrivalTimes[1] = model.Time{Hour: 8, Minute: 0}
	h2.Prices[0], h2.Prices[1] = 0, 10
	require.NoError(t, cat.Add(h2))
	base2, err := seats.Reserve(h2.StationNum, h2.SeatNum, 366)
	require.NoError(t, err)
	_, err = cat.Release("H2", base2)
	require.NoError(t, err)

	date := model.Date{Month: 6, Day: 10}
	transfer, ok, err := planner.QueryTransfer(cat, seats, "S", "T", date, planner.ByTime)
	require.NoError(t, err)
	require.True(t, ok, "naively day-shifting leg2 back from leg1's arrival would land before its sale window and drop this itinerary")
	require.Equal(t, "H1", transfer.Leg1.TrainID)
	require.Equal(t, "H2", transfer.Leg2.TrainID)
	require.Equal(t, model.Date{Month: 6, Day: 15}, transfer.Leg2.StartTime.Date)
}
