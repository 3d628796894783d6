package model

import "fmt"

// TicketInfo describes one candidate ticket returned by query_ticket or
// query_transfer: a single leg's schedule, price and seat availability.
type TicketInfo struct {
	TrainID     string
	From        string
	To          string
	StartTime   TimePoint
	EndTime     TimePoint
	Price       int
	SeatsLeft   int
}

// Minutes is this leg's travel time.
func (t TicketInfo) Minutes() int {
	return t.EndTime.SubMinutes(t.StartTime)
}

// Format renders the ticket the way query_ticket prints it:
// "<train_id> <from> <start> -> <to> <end> <price> <seats>".
func (t TicketInfo) Format() string {
	return fmt.Sprintf("%s %s %s -> %s %s %d %d",
		t.TrainID, t.From, t.StartTime, t.To, t.EndTime, t.Price, t.SeatsLeft)
}
