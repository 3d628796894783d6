// Package seatmap manages the per-(train,date) seat inventory: a flat
// heap file of SeatMap extents addressed directly by arithmetic on a
// train's reserved base offset, with no B+ tree involved at all — exactly
// the "memory river" pattern the catalog and order ledger build indexes
// on top of, used here bare because a train's sale window gives every
// running a predictable, preallocated slot.
package seatmap

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
)

// DefaultCacheCapacity bounds how many SeatMap pages the write-back cache
// holds in memory; dirty pages are written to the heap file on eviction
// or Flush.
const DefaultCacheCapacity = 512

// Store owns the seat heap file and its write-back page cache.
type Store struct {
	pages      *storage.PageStore[model.SeatMap]
	recordSize int64
}

// Open opens (or creates) the seat heap file under dir.
func Open(dir string, cacheCapacity int) (*Store, error) {
	codec := model.SeatMapCodec()
	h, _, err := storage.OpenHeap(filepath.Join(dir, "seat.memoryriver"), 0, codec)
	if err != nil {
		return nil, errors.Wrap(err, "open seat heap")
	}
	if cacheCapacity <= 0 {
		cacheCapacity = DefaultCacheCapacity
	}
	return &Store{
		pages:      storage.NewPageStore(h, cacheCapacity),
		recordSize: int64(codec.Size),
	}, nil
}

// Reserve preallocates one SeatMap extent per day of a train's sale
// window (numDays = SaleDateEnd - SaleDateStart + 1 days), each seeded at
// full capacity, and returns the offset of the first (earliest date's)
// extent. Subsequent days' extents are guaranteed contiguous because the
// heap file is append-only and Reserve performs all of its writes before
// any other caller can interleave one.
func (s *Store) Reserve(stationNum, seatNum, numDays int) (int64, error) {
	base := int64(-1)
	seatMap := model.NewSeatMap(stationNum, seatNum)
	for i := 0; i < numDays; i++ {
		offset, err := s.pages.Append(seatMap)
		if err != nil {
			return 0, errors.Wrap(err, "reserve seat map extent")
		}
		if base == -1 {
			base = offset
		}
	}
	return base, nil
}

// OffsetFor computes the byte offset of train's SeatMap extent for date,
// given the train's reserved base offset and sale window start.
func OffsetFor(basePos int64, saleDateStart, date model.Date, recordSize int64) int64 {
	dayIndex := date.DiffDays(saleDateStart)
	return basePos + int64(dayIndex)*recordSize
}

// Query returns the seat map for train's running on date.
func (s *Store) Query(basePos int64, saleDateStart, date model.Date) (model.SeatMap, error) {
	offset := OffsetFor(basePos, saleDateStart, date, s.recordSize)
	sm, err := s.pages.Read(offset)
	if err != nil {
		return model.SeatMap{}, errors.Wrap(err, "query seat map")
	}
	return sm, nil
}

// Available reports how many seats remain across [from,to) for the given
// running.
func (s *Store) Available(basePos int64, saleDateStart, date model.Date, from, to int) (int, error) {
	sm, err := s.Query(basePos, saleDateStart, date)
	if err != nil {
		return 0, err
	}
	return sm.Available(from, to), nil
}

// Book attempts to reserve n seats across [from,to) for the given
// running, returning false (with no error and no state change) if there
// is not enough capacity.
func (s *Store) Book(basePos int64, saleDateStart, date model.Date, from, to, n int) (bool, error) {
	sm, err := s.Query(basePos, saleDateStart, date)
	if err != nil {
		return false, err
	}
	if !sm.CanBook(from, to, n) {
		return false, nil
	}
	sm.Book(from, to, n)
	offset := OffsetFor(basePos, saleDateStart, date, s.recordSize)
	if err := s.pages.Update(offset, sm); err != nil {
		return false, errors.Wrap(err, "book seats")
	}
	return true, nil
}

// Release gives back n seats across [from,to) for the given running.
func (s *Store) Release(basePos int64, saleDateStart, date model.Date, from, to, n int) error {
	sm, err := s.Query(basePos, saleDateStart, date)
	if err != nil {
		return err
	}
	sm.Release(from, to, n)
	offset := OffsetFor(basePos, saleDateStart, date, s.recordSize)
	if err := s.pages.Update(offset, sm); err != nil {
		return errors.Wrap(err, "release seats")
	}
	return nil
}

// Flush writes back every dirty cached seat map page.
func (s *Store) Flush() error {
	return s.pages.Flush()
}

// Close flushes and closes the seat heap file.
func (s *Store) Close() error {
	return s.pages.Close()
}

// Remove deletes the seat heap file, used by the `clean` command.
func (s *Store) Remove() error {
	return s.pages.Remove()
}
