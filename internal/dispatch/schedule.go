package dispatch

import "github.com/railbook/engine/internal/model"

// buildSchedule expands add_train's compact "-x start -t travel -o
// stopover" schedule description into the full per-stop arrival and
// departure time arrays a Train record stores, plus the cumulative price
// array.
func buildSchedule(stationNum int, start model.Time, travelMinutes, stopoverMinutes, priceLegs []int) (arrival, departure [model.MaxStations]model.Time, prices [model.MaxStations]int) {
	arrival[0] = start
	departure[0] = start
	prices[0] = 0

	cumulative := start.TotalMinutes()
	for i := 1; i < stationNum; i++ {
		cumulative += travelMinutes[i-1]
		arrival[i] = model.Time{Hour: cumulative / 60, Minute: cumulative % 60}
		prices[i] = prices[i-1] + priceLegs[i-1]

		if i < stationNum-1 {
			cumulative += stopoverMinutes[i-1]
			departure[i] = model.Time{Hour: cumulative / 60, Minute: cumulative % 60}
		} else {
			departure[i] = arrival[i]
		}
	}
	return arrival, departure, prices
}
