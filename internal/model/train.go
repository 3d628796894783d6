package model

// MaxStations bounds how many stops a single train schedule may record,
// matching the original engine's fixed schedule arrays.
const MaxStations = 26

// Train is a single scheduled service: its stop sequence, the per-stop
// cumulative price and arrival/departure offsets, its sale window, and
// whether it has been released for booking. SeatMapPos is the byte offset
// of this train's first SeatMap extent in the seat heap file (see
// internal/seatmap), valid only once IsReleased is true; it is -1 before
// release.
type Train struct {
	TrainID       string
	Type          byte
	StationNum    int
	Stations      [MaxStations]string
	SeatNum       int
	Prices        [MaxStations]int
	ArrivalTimes  [MaxStations]Time
	DepartureTimes [MaxStations]Time
	SaleDateStart Date
	SaleDateEnd   Date
	IsReleased    bool
	SeatMapPos    int64
}

// QueryStationIndex returns the position of station in the train's stop
// sequence, or -1 if the train does not call there.
func (tr Train) QueryStationIndex(station string) int {
	for i := 0; i < tr.StationNum; i++ {
		if tr.Stations[i] == station {
			return i
		}
	}
	return -1
}

// PriceBetween returns the fare for riding from stop i to stop j (i<j).
func (tr Train) PriceBetween(i, j int) int {
	return tr.Prices[j] - tr.Prices[i]
}

// UniTrain identifies one day's running of one train: the composite key
// used to address that day's seat map and pending-queue entries.
type UniTrain struct {
	TrainID string
	Date    Date
}

// Less orders UniTrain first by train id, then by date.
func (u UniTrain) Less(other UniTrain) bool {
	if u.TrainID != other.TrainID {
		return u.TrainID < other.TrainID
	}
	return u.Date.Less(other.Date)
}
