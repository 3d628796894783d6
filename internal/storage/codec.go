// Package storage implements the on-disk building blocks the rest of the
// engine is built on: a flat paged heap file addressed by byte offset (the
// "memory river"), a bounded write-back LRU cache of that heap's pages, and
// a generic B+ tree multimap layered on top of both.
//
// None of these types know anything about trains, seats, or orders. They
// only know how to move fixed-size records between memory and disk.
package storage

import "encoding/binary"

// Codec describes how a fixed-size value of type T is serialized to and
// from a byte slice. Every record written to a Heap must encode to exactly
// Size bytes, since the heap addresses records by offset rather than by
// length prefix.
type Codec[T any] struct {
	Size   int
	Encode func(v T, buf []byte)
	Decode func(buf []byte) T
}

// PutInt32 writes a big-endian int32 into buf[0:4].
func PutInt32(buf []byte, v int32) {
	binary.BigEndian.PutUint32(buf, uint32(v))
}

// GetInt32 reads a big-endian int32 from buf[0:4].
func GetInt32(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

// PutInt64 writes a big-endian int64 into buf[0:8].
func PutInt64(buf []byte, v int64) {
	binary.BigEndian.PutUint64(buf, uint64(v))
}

// GetInt64 reads a big-endian int64 from buf[0:8].
func GetInt64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

// PutBool writes a single byte bool into buf[0:1].
func PutBool(buf []byte, v bool) {
	if v {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
}

// GetBool reads a single byte bool from buf[0:1].
func GetBool(buf []byte) bool {
	return buf[0] != 0
}

// PutFixedString writes s left-justified into buf, zero-padding the
// remainder. It panics if s is longer than buf, which signals a model
// invariant violation (e.g. a station name over its declared width)
// rather than a transient I/O failure.
func PutFixedString(buf []byte, s string) {
	if len(s) > len(buf) {
		panic("storage: fixed string exceeds field width")
	}
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// GetFixedString reads a NUL-terminated (or full-width) string out of buf.
func GetFixedString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
