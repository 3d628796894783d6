package storage

import (
	"os"

	"github.com/pkg/errors"
)

const infoSlotSize = 8

// Heap is a flat, paged file of fixed-size records of type T, addressed by
// byte offset. It mirrors the memory-river pattern: a small header of
// int64 metadata slots followed by an append-only sequence of records.
// A Heap never interprets its records; codec.Encode/Decode do all of the
// translation between T and bytes.
type Heap[T any] struct {
	path     string
	file     *os.File
	codec    Codec[T]
	infoLen  int
	headerSz int64
}

// OpenHeap opens (creating if absent) a heap file with infoLen header
// slots. created reports whether the file did not previously exist, so
// callers can distinguish a brand new store from one being reattached.
func OpenHeap[T any](path string, infoLen int, codec Codec[T]) (h *Heap[T], created bool, err error) {
	h = &Heap[T]{path: path, codec: codec, infoLen: infoLen, headerSz: int64(infoLen) * infoSlotSize}
	_, statErr := os.Stat(path)
	created = os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, errors.Wrapf(err, "open heap file %s", path)
	}
	h.file = f

	if created {
		buf := make([]byte, h.headerSz)
		if _, err := h.file.WriteAt(buf, 0); err != nil {
			return nil, false, errors.Wrapf(err, "initialise heap file %s", path)
		}
	}
	return h, created, nil
}

// GetInfo reads the n'th (1-based) header slot.
func (h *Heap[T]) GetInfo(n int) (int64, error) {
	buf := make([]byte, infoSlotSize)
	if _, err := h.file.ReadAt(buf, int64(n-1)*infoSlotSize); err != nil {
		return 0, errors.Wrapf(err, "read header slot %d of %s", n, h.path)
	}
	return GetInt64(buf), nil
}

// WriteInfo writes the n'th (1-based) header slot.
func (h *Heap[T]) WriteInfo(n int, v int64) error {
	buf := make([]byte, infoSlotSize)
	PutInt64(buf, v)
	if _, err := h.file.WriteAt(buf, int64(n-1)*infoSlotSize); err != nil {
		return errors.Wrapf(err, "write header slot %d of %s", n, h.path)
	}
	return nil
}

// Write appends rec past the current end of file and returns its offset.
func (h *Heap[T]) Write(rec T) (int64, error) {
	fi, err := h.file.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat heap file %s", h.path)
	}
	offset := fi.Size()
	if offset < h.headerSz {
		offset = h.headerSz
	}
	buf := make([]byte, h.codec.Size)
	h.codec.Encode(rec, buf)
	if _, err := h.file.WriteAt(buf, offset); err != nil {
		return 0, errors.Wrapf(err, "append record to %s", h.path)
	}
	return offset, nil
}

// Read reads the record stored at offset.
func (h *Heap[T]) Read(offset int64) (T, error) {
	var zero T
	buf := make([]byte, h.codec.Size)
	if _, err := h.file.ReadAt(buf, offset); err != nil {
		return zero, errors.Wrapf(err, "read record at %d in %s", offset, h.path)
	}
	return h.codec.Decode(buf), nil
}

// Update overwrites the record at offset in place.
func (h *Heap[T]) Update(rec T, offset int64) error {
	buf := make([]byte, h.codec.Size)
	h.codec.Encode(rec, buf)
	if _, err := h.file.WriteAt(buf, offset); err != nil {
		return errors.Wrapf(err, "update record at %d in %s", offset, h.path)
	}
	return nil
}

// Delete removes the record at offset by moving the last record in the
// file into its place and truncating. Nothing in the engine calls it: the
// B+ tree's pages are append/rewrite only, and the seat map and order
// heaps address records by fixed offsets that a move would invalidate.
func (h *Heap[T]) Delete(offset int64) error {
	fi, err := h.file.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat heap file %s", h.path)
	}
	last := fi.Size() - int64(h.codec.Size)
	if last < h.headerSz {
		return errors.Errorf("delete from empty heap %s", h.path)
	}
	if last != offset {
		buf := make([]byte, h.codec.Size)
		if _, err := h.file.ReadAt(buf, last); err != nil {
			return errors.Wrapf(err, "read tail record of %s", h.path)
		}
		if _, err := h.file.WriteAt(buf, offset); err != nil {
			return errors.Wrapf(err, "shift tail record into %d in %s", offset, h.path)
		}
	}
	if err := h.file.Truncate(last); err != nil {
		return errors.Wrapf(err, "truncate %s", h.path)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (h *Heap[T]) Close() error {
	if err := h.file.Sync(); err != nil {
		return errors.Wrapf(err, "sync heap file %s", h.path)
	}
	return h.file.Close()
}

// Remove closes and deletes the heap file from disk, used by the `clean`
// command to reset all engine state.
func (h *Heap[T]) Remove() error {
	h.file.Close()
	return os.Remove(h.path)
}
