package dispatch

import (
	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/booking"
	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/orders"
	"github.com/railbook/engine/internal/seatmap"
	"github.com/railbook/engine/internal/storage"
	"github.com/railbook/engine/internal/users"
)

// Engine owns every store the dispatch handlers act on, plus the dataDir
// and tuning needed to recreate them after a `clean`.
type Engine struct {
	dataDir string
	opts    storage.Options
	seatCap int
	orderCap int

	Catalog *catalog.Store
	Seats   *seatmap.Store
	Orders  *orders.Store
	Users   *users.Store
	Booking *booking.Engine
}

// NewEngine opens (or creates) every backing store under dataDir.
func NewEngine(dataDir string, opts storage.Options, seatCacheCap, orderHeapCacheCap int) (*Engine, error) {
	e := &Engine{dataDir: dataDir, opts: opts, seatCap: seatCacheCap, orderCap: orderHeapCacheCap}
	if err := e.open(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) open() error {
	cat, err := catalog.Open(e.dataDir, e.opts)
	if err != nil {
		return errors.Wrap(err, "open catalog")
	}
	seats, err := seatmap.Open(e.dataDir, e.seatCap)
	if err != nil {
		return errors.Wrap(err, "open seat store")
	}
	ord, err := orders.Open(e.dataDir, e.opts, e.orderCap)
	if err != nil {
		return errors.Wrap(err, "open order ledger")
	}
	usr, err := users.Open(e.dataDir, e.opts)
	if err != nil {
		return errors.Wrap(err, "open user store")
	}

	e.Catalog = cat
	e.Seats = seats
	e.Orders = ord
	e.Users = usr
	e.Booking = &booking.Engine{Catalog: cat, Seats: seats, Orders: ord, Users: usr}
	return nil
}

// Flush writes back every dirty cached page across all stores.
func (e *Engine) Flush() error {
	if err := e.Catalog.Flush(); err != nil {
		return err
	}
	if err := e.Seats.Flush(); err != nil {
		return err
	}
	if err := e.Orders.Flush(); err != nil {
		return err
	}
	return e.Users.Flush()
}

// Close flushes and closes every store.
func (e *Engine) Close() error {
	if err := e.Catalog.Close(); err != nil {
		return err
	}
	if err := e.Seats.Close(); err != nil {
		return err
	}
	if err := e.Orders.Close(); err != nil {
		return err
	}
	return e.Users.Close()
}

// Clean deletes every backing file and reopens fresh, empty stores —
// the `clean` command's effect.
func (e *Engine) Clean() error {
	if err := e.Catalog.Remove(); err != nil {
		return err
	}
	if err := e.Seats.Remove(); err != nil {
		return err
	}
	if err := e.Orders.Remove(); err != nil {
		return err
	}
	if err := e.Users.Remove(); err != nil {
		return err
	}
	return e.open()
}
