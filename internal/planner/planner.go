// Package planner answers query_ticket and query_transfer: finding and
// ranking direct and one-transfer itineraries between two stations.
package planner

import (
	"sort"

	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/seatmap"
)

// OrderBy selects the primary sort key for search results.
type OrderBy int

const (
	ByTime OrderBy = iota
	ByCost
)

// ParseOrderBy maps the protocol's -p flag ("time"/"cost", default "time")
// onto an OrderBy.
func ParseOrderBy(s string) OrderBy {
	if s == "cost" {
		return ByCost
	}
	return ByTime
}

// QueryDirect returns every direct ticket from -> to on date, sorted by
// the requested key with train id as the tie-break.
func QueryDirect(cat *catalog.Store, seats *seatmap.Store, from, to string, date model.Date, order OrderBy) ([]model.TicketInfo, error) {
	trains, err := cat.QueryRoute(from, to)
	if err != nil {
		return nil, err
	}

	tickets := make([]model.TicketInfo, 0, len(trains))
	for _, tr := range trains {
		fromIdx := tr.QueryStationIndex(from)
		toIdx := tr.QueryStationIndex(to)
		if fromIdx == -1 || toIdx == -1 || fromIdx >= toIdx {
			continue
		}
		origin := date.SubDays(tr.DepartureTimes[fromIdx].Hour / 24)
		if origin.Less(tr.SaleDateStart) || tr.SaleDateEnd.Less(origin) {
			continue
		}
		avail, err := seats.Available(tr.SeatMapPos, tr.SaleDateStart, origin, fromIdx, toIdx)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, model.TicketInfo{
			TrainID:   tr.TrainID,
			From:      from,
			To:        to,
			StartTime: model.NewTimePoint(origin, tr.DepartureTimes[fromIdx]),
			EndTime:   model.NewTimePoint(origin, tr.ArrivalTimes[toIdx]),
			Price:     tr.PriceBetween(fromIdx, toIdx),
			SeatsLeft: avail,
		})
	}

	sort.Slice(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		var primaryLess bool
		var primaryEqual bool
		if order == ByTime {
			primaryLess = a.Minutes() < b.Minutes()
			primaryEqual = a.Minutes() == b.Minutes()
		} else {
			primaryLess = a.Price < b.Price
			primaryEqual = a.Price == b.Price
		}
		if !primaryEqual {
			return primaryLess
		}
		return a.TrainID < b.TrainID
	})
	return tickets, nil
}

// Transfer is one two-leg itinerary: a first leg to an intermediate
// station, and a second leg from there to the final destination.
type Transfer struct {
	Leg1 model.TicketInfo
	Leg2 model.TicketInfo
}

// TotalPrice is the combined fare of both legs.
func (tr Transfer) TotalPrice() int {
	return tr.Leg1.Price + tr.Leg2.Price
}

// TotalMinutes is the elapsed time from boarding leg 1 to arriving at the
// final destination on leg 2, including any wait at the transfer station.
func (tr Transfer) TotalMinutes() int {
	return tr.Leg2.EndTime.SubMinutes(tr.Leg1.StartTime)
}

// QueryTransfer searches every (train1, train2) pair connecting from to
// to through a single shared intermediate station, and returns the single
// best itinerary by the requested ordering key, or ok=false if none
// exists. Ties are broken first by the non-selected metric, then by
// train1's id, then by train2's id — a pure, history-independent
// comparison rather than one relative to whichever candidate happened to
// be found first.
func QueryTransfer(cat *catalog.Store, seats *seatmap.Store, from, to string, date model.Date, order OrderBy) (Transfer, bool, error) {
	trains1, err := cat.QueryByStation(from)
	if err != nil {
		return Transfer{}, false, err
	}

	var best Transfer
	found := false

	for _, t1 := range trains1 {
		i1 := t1.QueryStationIndex(from)
		if i1 == -1 || i1 >= t1.StationNum-1 {
			continue
		}
		origin1 := date.SubDays(t1.DepartureTimes[i1].Hour / 24)
		if origin1.Less(t1.SaleDateStart) || t1.SaleDateEnd.Less(origin1) {
			continue
		}
		depart1 := model.NewTimePoint(origin1, t1.DepartureTimes[i1])

		for s1 := i1 + 1; s1 < t1.StationNum; s1++ {
			transferStation := t1.Stations[s1]
			if transferStation == to {
				continue
			}
			arrive1 := model.NewTimePoint(origin1, t1.ArrivalTimes[s1])
			price1 := t1.PriceBetween(i1, s1)
			avail1, err := seats.Available(t1.SeatMapPos, t1.SaleDateStart, origin1, i1, s1)
			if err != nil {
				return Transfer{}, false, err
			}

			trains2, err := cat.QueryByStation(transferStation)
			if err != nil {
				return Transfer{}, false, err
			}

			for _, t2 := range trains2 {
				if t2.TrainID == t1.TrainID {
					continue
				}
				j1 := t2.QueryStationIndex(transferStation)
				j2 := t2.QueryStationIndex(to)
				if j1 == -1 || j2 == -1 || j1 >= j2 {
					continue
				}

				// If t2's first sale-day run at the transfer station already
				// departs no earlier than leg1's arrival, the passenger waits
				// for that first run rather than boarding some day computed
				// by shifting back from arrive1 — which can land before
				// SaleDateStart even though a later, valid run exists.
				var origin2 model.Date
				var depart2 model.TimePoint
				saleStartDepart := model.NewTimePoint(t2.SaleDateStart, t2.DepartureTimes[j1])
				if !saleStartDepart.Less(arrive1) {
					origin2 = t2.SaleDateStart
					depart2 = saleStartDepart
				} else {
					origin2 = arrive1.Date.SubDays(t2.DepartureTimes[j1].Hour / 24)
					depart2 = model.NewTimePoint(origin2, t2.DepartureTimes[j1])
					if depart2.Less(arrive1) {
						origin2 = origin2.AddDays(1)
						depart2 = model.NewTimePoint(origin2, t2.DepartureTimes[j1])
					}
				}
				if origin2.Less(t2.SaleDateStart) || t2.SaleDateEnd.Less(origin2) {
					continue
				}

				arrive2 := model.NewTimePoint(origin2, t2.ArrivalTimes[j2])
				price2 := t2.PriceBetween(j1, j2)
				avail2, err := seats.Available(t2.SeatMapPos, t2.SaleDateStart, origin2, j1, j2)
				if err != nil {
					return Transfer{}, false, err
				}

				candidate := Transfer{
					Leg1: model.TicketInfo{
						TrainID: t1.TrainID, From: from, To: transferStation,
						StartTime: depart1, EndTime: arrive1, Price: price1, SeatsLeft: avail1,
					},
					Leg2: model.TicketInfo{
						TrainID: t2.TrainID, From: transferStation, To: to,
						StartTime: depart2, EndTime: arrive2, Price: price2, SeatsLeft: avail2,
					},
				}

				if !found || transferLess(candidate, best, order) {
					best = candidate
					found = true
				}
			}
		}
	}

	return best, found, nil
}

// transferLess reports whether a ranks strictly better than b under the
// requested primary ordering key, falling through to the secondary
// metric, then train1's id, then train2's id.
func transferLess(a, b Transfer, order OrderBy) bool {
	var aPrimary, bPrimary, aSecondary, bSecondary int
	if order == ByTime {
		aPrimary, bPrimary = a.TotalMinutes(), b.TotalMinutes()
		aSecondary, bSecondary = a.TotalPrice(), b.TotalPrice()
	} else {
		aPrimary, bPrimary = a.TotalPrice(), b.TotalPrice()
		aSecondary, bSecondary = a.TotalMinutes(), b.TotalMinutes()
	}
	if aPrimary != bPrimary {
		return aPrimary < bPrimary
	}
	if aSecondary != bSecondary {
		return aSecondary < bSecondary
	}
	if a.Leg1.TrainID != b.Leg1.TrainID {
		return a.Leg1.TrainID < b.Leg1.TrainID
	}
	return a.Leg2.TrainID < b.Leg2.TrainID
}
