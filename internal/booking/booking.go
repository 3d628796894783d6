// Package booking orchestrates buy_ticket and refund_ticket: the only two
// operations that touch the catalog, seat inventory, order ledger and
// user directory all at once.
package booking

import (
	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/orders"
	"github.com/railbook/engine/internal/seatmap"
	"github.com/railbook/engine/internal/users"
)

var (
	// ErrNotLoggedIn is returned when the acting user has no session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidRoute is returned when the requested stations are not a
	// valid, ordered pair of stops on the train.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrTrainNotOnSale is returned when the requested date falls outside
	// the train's sale window, or the train has never been released.
	ErrTrainNotOnSale = errors.New("train not on sale")
	// ErrTooManySeats is returned when the request exceeds the train's
	// total seat capacity (which no amount of waiting can satisfy).
	ErrTooManySeats = errors.New("requested more seats than the train has")
	// ErrNoSeatsAvailable is returned when booking fails and the caller
	// did not opt into the pending queue.
	ErrNoSeatsAvailable = errors.New("no seats available")
	// ErrOrderNotFound is returned by Refund for an out-of-range index.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyRefunded is returned by Refund on an already-refunded order.
	ErrAlreadyRefunded = errors.New("order already refunded")
)

// Engine wires the catalog, seat inventory, order ledger and user
// directory together to serve buy_ticket and refund_ticket.
type Engine struct {
	Catalog *catalog.Store
	Seats   *seatmap.Store
	Orders  *orders.Store
	Users   *users.Store
}

// BuyResult is the outcome of a successful Buy call.
type BuyResult struct {
	Queued     bool
	TotalPrice int
}

// Buy books ticketNum seats on trainID's running that departs from
// station `from` on the given calendar date, for username. allowQueue
// controls what happens when there isn't enough capacity: if true the
// order is queued (FIFO) against future refunds on the same running;
// if false, ErrNoSeatsAvailable is returned instead.
func (e *Engine) Buy(username, trainID string, date model.Date, from, to string, ticketNum, timestamp int, allowQueue bool) (BuyResult, error) {
	if !e.Users.IsLoggedIn(username) {
		return BuyResult{}, errors.Wrapf(ErrNotLoggedIn, "user %s", username)
	}

	train, err := e.Catalog.Query(trainID)
	if err != nil {
		return BuyResult{}, err
	}
	if !train.IsReleased {
		return BuyResult{}, errors.Wrapf(ErrTrainNotOnSale, "train %s", trainID)
	}

	fromIdx := train.QueryStationIndex(from)
	toIdx := train.QueryStationIndex(to)
	if fromIdx == -1 || toIdx == -1 || fromIdx >= toIdx {
		return BuyResult{}, errors.Wrapf(ErrInvalidRoute, "%s -> %s on train %s", from, to, trainID)
	}

	startDate := date.SubDays(train.DepartureTimes[fromIdx].Hour / 24)
	if startDate.Less(train.SaleDateStart) || train.SaleDateEnd.Less(startDate) {
		return BuyResult{}, errors.Wrapf(ErrTrainNotOnSale, "train %s on %s", trainID, startDate)
	}
	if ticketNum > train.SeatNum {
		return BuyResult{}, errors.Wrapf(ErrTooManySeats, "requested %d, train holds %d", ticketNum, train.SeatNum)
	}

	price := train.PriceBetween(fromIdx, toIdx)
	order := model.Order{
		Username:     username,
		TrainID:      trainID,
		OriginDate:   startDate,
		FromStation:  from,
		FromIndex:    fromIdx,
		StartTime:    model.NewTimePoint(startDate, train.DepartureTimes[fromIdx]),
		ToStation:    to,
		ToIndex:      toIdx,
		EndTime:      model.NewTimePoint(startDate, train.ArrivalTimes[toIdx]),
		TicketNum:    ticketNum,
		Timestamp:    timestamp,
		PricePerSeat: price,
	}

	booked, err := e.Seats.Book(train.SeatMapPos, train.SaleDateStart, startDate, fromIdx, toIdx, ticketNum)
	if err != nil {
		return BuyResult{}, err
	}
	if !booked {
		if !allowQueue {
			return BuyResult{}, errors.Wrapf(ErrNoSeatsAvailable, "train %s on %s", trainID, startDate)
		}
		order.Status = model.StatusPending
		if _, err := e.Orders.Add(order); err != nil {
			return BuyResult{}, err
		}
		return BuyResult{Queued: true}, nil
	}

	order.Status = model.StatusSuccess
	if _, err := e.Orders.Add(order); err != nil {
		return BuyResult{}, err
	}
	return BuyResult{TotalPrice: price * ticketNum}, nil
}

// Refund cancels username's orderIndex'th most recent order (1 = most
// recent), freeing its seats and promoting, in FIFO order, every pending
// order on the same running whose requested span overlaps the freed one
// and now fits; the others stay pending.
func (e *Engine) Refund(username string, orderIndex int) error {
	if !e.Users.IsLoggedIn(username) {
		return errors.Wrapf(ErrNotLoggedIn, "user %s", username)
	}
	if orderIndex <= 0 {
		return errors.Wrapf(ErrOrderNotFound, "index %d", orderIndex)
	}

	refs, err := e.Orders.ListByUser(username)
	if err != nil {
		return err
	}
	if orderIndex > len(refs) {
		return errors.Wrapf(ErrOrderNotFound, "index %d of %d orders", orderIndex, len(refs))
	}
	ref := refs[len(refs)-orderIndex]

	switch ref.Order.Status {
	case model.StatusRefunded:
		return errors.Wrapf(ErrAlreadyRefunded, "order %d", orderIndex)
	case model.StatusPending:
		if err := e.Orders.UpdateStatus(ref.Offset, model.StatusRefunded); err != nil {
			return err
		}
		return e.Orders.RemovePending(ref.Offset, ref.Order)
	}

	train, err := e.Catalog.Query(ref.Order.TrainID)
	if err != nil {
		return err
	}

	if err := e.Seats.Release(train.SeatMapPos, train.SaleDateStart, ref.Order.OriginDate,
		ref.Order.FromIndex, ref.Order.ToIndex, ref.Order.TicketNum); err != nil {
		return err
	}
	if err := e.Orders.UpdateStatus(ref.Offset, model.StatusRefunded); err != nil {
		return err
	}

	pendingRefs, err := e.Orders.ListPending(ref.Order.UniTrain())
	if err != nil {
		return err
	}

	var promoted []orders.Ref
	for _, p := range pendingRefs {
		if !model.Overlaps(p.Order.FromIndex, p.Order.ToIndex, ref.Order.FromIndex, ref.Order.ToIndex) {
			continue
		}
		booked, err := e.Seats.Book(train.SeatMapPos, train.SaleDateStart, p.Order.OriginDate,
			p.Order.FromIndex, p.Order.ToIndex, p.Order.TicketNum)
		if err != nil {
			return err
		}
		if booked {
			if err := e.Orders.UpdateStatus(p.Offset, model.StatusSuccess); err != nil {
				return err
			}
			promoted = append(promoted, p)
		}
	}
	for _, p := range promoted {
		if err := e.Orders.RemovePending(p.Offset, p.Order); err != nil {
			return err
		}
	}
	return nil
}
