package model

import "fmt"

// OrderStatus tracks an order through its lifecycle.
type OrderStatus int

const (
	StatusSuccess OrderStatus = iota
	StatusPending
	StatusRefunded
)

func (s OrderStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPending:
		return "pending"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Order is one buy_ticket request's outcome: a ticket purchase, a queued
// (pending) request awaiting a cancellation to free seats, or a refunded
// record of either. OriginDate is the departure date of the run itself
// (after subtracting the boarding station's day offset), which doubles as
// half of the UniTrain key used to find this order's seat map and
// pending-queue bucket.
type Order struct {
	Username    string
	TrainID     string
	OriginDate  Date
	FromStation string
	FromIndex   int
	StartTime   TimePoint
	ToStation   string
	ToIndex     int
	EndTime     TimePoint
	TicketNum   int
	Timestamp   int
	PricePerSeat int
	Status      OrderStatus
}

// UniTrain identifies the (train, date) run this order books seats on.
func (o Order) UniTrain() UniTrain {
	return UniTrain{TrainID: o.TrainID, Date: o.OriginDate}
}

// TotalPrice is the price of all ticket_num seats in this order.
func (o Order) TotalPrice() int {
	return o.PricePerSeat * o.TicketNum
}

// Format renders the order the way query_order prints it:
// "[<status>] <train_id> <from> <start> -> <to> <end> <price> <num>".
func (o Order) Format() string {
	return fmt.Sprintf("[%s] %s %s %s -> %s %s %d %d",
		o.Status, o.TrainID, o.FromStation, o.StartTime, o.ToStation, o.EndTime, o.PricePerSeat, o.TicketNum)
}
