package storage

// PageStore combines a Heap[T] with a write-back LRUCache of its pages,
// giving callers (the B+ tree's index and leaf layers) a single
// read/write/update/flush surface per node type instead of juggling a
// heap and a cache independently.
type PageStore[T any] struct {
	heap  *Heap[T]
	cache *LRUCache[T]
}

// NewPageStore wires cache evictions straight through to heap.Update.
func NewPageStore[T any](heap *Heap[T], capacity int) *PageStore[T] {
	ps := &PageStore[T]{heap: heap}
	ps.cache = NewLRUCache[T](capacity, func(offset int64, value T) error {
		return heap.Update(value, offset)
	})
	return ps
}

// Read returns the page at offset, reading through to the heap on a
// cache miss and populating the cache with a clean entry.
func (ps *PageStore[T]) Read(offset int64) (T, error) {
	if v, ok := ps.cache.Get(offset); ok {
		return v, nil
	}
	v, err := ps.heap.Read(offset)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := ps.cache.Put(offset, v, false); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Append writes a brand new page to the heap and seeds the cache with a
// clean entry for it (the heap write already persisted it).
func (ps *PageStore[T]) Append(v T) (int64, error) {
	offset, err := ps.heap.Write(v)
	if err != nil {
		return 0, err
	}
	if err := ps.cache.Put(offset, v, false); err != nil {
		return 0, err
	}
	return offset, nil
}

// Update overwrites the page at offset with v, marking the cache entry
// dirty so it is lazily flushed to the heap on eviction or Flush.
func (ps *PageStore[T]) Update(offset int64, v T) error {
	return ps.cache.Put(offset, v, true)
}

// Flush writes every dirty cached page back to the heap.
func (ps *PageStore[T]) Flush() error {
	return ps.cache.Flush()
}

// Heap exposes the underlying heap for header-slot access (root/height).
func (ps *PageStore[T]) Heap() *Heap[T] {
	return ps.heap
}

// Close flushes and closes the backing heap file.
func (ps *PageStore[T]) Close() error {
	if err := ps.Flush(); err != nil {
		return err
	}
	return ps.heap.Close()
}

// Remove deletes the backing heap file.
func (ps *PageStore[T]) Remove() error {
	return ps.heap.Remove()
}
