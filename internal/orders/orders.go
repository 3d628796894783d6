// Package orders is the order ledger: every Order ever created lives once
// in a heap file, found via two B+ tree indexes — one keyed by username
// (for query_order, in chronological order since later orders always
// land at a larger heap offset) and one keyed by the (train,date) run it
// booked seats on (the FIFO pending queue consulted on refund).
package orders

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
)

// ErrOrderNotFound is returned when a heap offset does not resolve.
var ErrOrderNotFound = errors.New("order not found")

// Ref pairs a ledger heap offset with the order it currently points to,
// the shape returned by listing queries so callers can update status or
// remove a pending entry without a second lookup.
type Ref struct {
	Offset int64
	Order  model.Order
}

// Store is the order ledger.
type Store struct {
	heap    *storage.PageStore[model.Order]
	byUser  *storage.BPTree[uint64, int64]
	pending *storage.BPTree[model.UniTrain, int64]
}

// DefaultHeapCacheCapacity bounds the order heap's write-back page cache.
const DefaultHeapCacheCapacity = 1024

// Open opens (or creates) the order ledger's heap and indexes under dir.
func Open(dir string, opts storage.Options, heapCacheCapacity int) (*Store, error) {
	h, _, err := storage.OpenHeap(filepath.Join(dir, "order.memoryriver"), 0, model.OrderCodec())
	if err != nil {
		return nil, errors.Wrap(err, "open order heap")
	}
	if heapCacheCapacity <= 0 {
		heapCacheCapacity = DefaultHeapCacheCapacity
	}

	u64Less := func(a, b uint64) bool { return a < b }
	i64Less := func(a, b int64) bool { return a < b }

	byUser, err := storage.Open(dir, "order", model.Uint64Codec(), model.Int64Codec(), u64Less, i64Less, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open order-by-user index")
	}
	pending, err := storage.Open(dir, "pending", model.UniTrainCodec(model.TrainIDWidth), model.Int64Codec(), model.UniTrain.Less, i64Less, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open pending index")
	}

	return &Store{
		heap:    storage.NewPageStore(h, heapCacheCapacity),
		byUser:  byUser,
		pending: pending,
	}, nil
}

// Add appends a new order to the ledger, indexes it by username, and (if
// the order is pending) also indexes it in the (train,date) pending
// queue. It returns the order's ledger offset for later status updates.
func (s *Store) Add(order model.Order) (int64, error) {
	offset, err := s.heap.Append(order)
	if err != nil {
		return 0, errors.Wrap(err, "append order")
	}
	if err := s.byUser.Insert(model.HashString(order.Username), offset); err != nil {
		return 0, errors.Wrap(err, "index order by user")
	}
	if order.Status == model.StatusPending {
		if err := s.pending.Insert(order.UniTrain(), offset); err != nil {
			return 0, errors.Wrap(err, "index pending order")
		}
	}
	return offset, nil
}

// ListByUser returns username's orders in chronological (oldest-first)
// order.
func (s *Store) ListByUser(username string) ([]Ref, error) {
	offsets, err := s.byUser.Find(model.HashString(username))
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(offsets))
	for _, off := range offsets {
		order, err := s.heap.Read(off)
		if err != nil {
			return nil, err
		}
		if order.Username != username {
			continue
		}
		refs = append(refs, Ref{Offset: off, Order: order})
	}
	return refs, nil
}

// ListPending returns every pending order queued for the given
// (train,date) run, in FIFO (oldest-first) order.
func (s *Store) ListPending(ut model.UniTrain) ([]Ref, error) {
	offsets, err := s.pending.Find(ut)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(offsets))
	for _, off := range offsets {
		order, err := s.heap.Read(off)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Ref{Offset: off, Order: order})
	}
	return refs, nil
}

// Read returns the order stored at offset.
func (s *Store) Read(offset int64) (model.Order, error) {
	return s.heap.Read(offset)
}

// UpdateStatus rewrites the order at offset with a new status.
func (s *Store) UpdateStatus(offset int64, status model.OrderStatus) error {
	order, err := s.heap.Read(offset)
	if err != nil {
		return errors.Wrap(err, "read order for status update")
	}
	order.Status = status
	return s.heap.Update(offset, order)
}

// RemovePending removes order (found at offset) from its (train,date)
// pending queue, leaving the ledger record and the by-user index intact.
func (s *Store) RemovePending(offset int64, order model.Order) error {
	return s.pending.Remove(order.UniTrain(), offset)
}

// Flush writes back every dirty cached page across the heap and indexes.
func (s *Store) Flush() error {
	if err := s.heap.Flush(); err != nil {
		return err
	}
	if err := s.byUser.Flush(); err != nil {
		return err
	}
	return s.pending.Flush()
}

// Close flushes and closes the heap and both indexes.
func (s *Store) Close() error {
	if err := s.heap.Close(); err != nil {
		return err
	}
	if err := s.byUser.Close(); err != nil {
		return err
	}
	return s.pending.Close()
}

// Remove deletes all backing files, used by `clean`.
func (s *Store) Remove() error {
	if err := s.heap.Remove(); err != nil {
		return err
	}
	if err := s.byUser.Remove(); err != nil {
		return err
	}
	return s.pending.Remove()
}
