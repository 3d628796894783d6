package storage

// KV is one (key, value) pair stored in a B+ tree leaf, and also the
// routing separator stored in an index node.
type KV[K, V any] struct {
	Key   K
	Value V
}

// IndexNode is an internal B+ tree node: Size separators with Size+1
// children. Children and Keys are allocated with one slot of headroom
// beyond `order` so an overflowing insert can be built in memory before
// the node is split.
type IndexNode[K, V any] struct {
	Children []int64
	Keys     []KV[K, V]
	Size     int
}

// LeafNode is a B+ tree leaf: Size entries plus Next, the byte offset of
// the following leaf in ascending key order (-1 if this is the last
// leaf). Entries is allocated with one slot of headroom for the same
// reason as IndexNode.Keys.
type LeafNode[K, V any] struct {
	Next    int64
	Entries []KV[K, V]
	Size    int
}

// indexNodeCodec builds a fixed-size Codec for IndexNode[K,V] given the
// per-field codecs and the node's normal (non-overflow) order. The
// on-disk layout always reserves order+2 child slots and order+1 key
// slots regardless of how full the node currently is, so every index
// page occupies exactly the same number of bytes.
func indexNodeCodec[K, V any](keyCodec Codec[K], valueCodec Codec[V], order int) Codec[IndexNode[K, V]] {
	kvSize := keyCodec.Size + valueCodec.Size
	maxChildren := order + 2
	maxKeys := order + 1
	size := 4 + maxChildren*8 + maxKeys*kvSize

	return Codec[IndexNode[K, V]]{
		Size: size,
		Encode: func(v IndexNode[K, V], buf []byte) {
			off := 0
			PutInt32(buf[off:], int32(v.Size))
			off += 4
			for i := 0; i < maxChildren; i++ {
				var c int64 = -1
				if i < len(v.Children) {
					c = v.Children[i]
				}
				PutInt64(buf[off:], c)
				off += 8
			}
			for i := 0; i < maxKeys; i++ {
				kvBuf := buf[off : off+kvSize]
				if i < len(v.Keys) {
					keyCodec.Encode(v.Keys[i].Key, kvBuf[:keyCodec.Size])
					valueCodec.Encode(v.Keys[i].Value, kvBuf[keyCodec.Size:])
				} else {
					for j := range kvBuf {
						kvBuf[j] = 0
					}
				}
				off += kvSize
			}
		},
		Decode: func(buf []byte) IndexNode[K, V] {
			off := 0
			size := int(GetInt32(buf[off:]))
			off += 4
			children := make([]int64, size+1)
			for i := 0; i < maxChildren; i++ {
				c := GetInt64(buf[off:])
				if i < size+1 {
					children[i] = c
				}
				off += 8
			}
			keys := make([]KV[K, V], size)
			for i := 0; i < maxKeys; i++ {
				kvBuf := buf[off : off+kvSize]
				if i < size {
					keys[i] = KV[K, V]{
						Key:   keyCodec.Decode(kvBuf[:keyCodec.Size]),
						Value: valueCodec.Decode(kvBuf[keyCodec.Size:]),
					}
				}
				off += kvSize
			}
			return IndexNode[K, V]{Children: children, Keys: keys, Size: size}
		},
	}
}

// leafNodeCodec builds a fixed-size Codec for LeafNode[K,V] given the
// per-field codecs and the leaf's normal (non-overflow) capacity.
func leafNodeCodec[K, V any](keyCodec Codec[K], valueCodec Codec[V], leafSize int) Codec[LeafNode[K, V]] {
	kvSize := keyCodec.Size + valueCodec.Size
	maxEntries := leafSize + 1
	size := 4 + 8 + maxEntries*kvSize

	return Codec[LeafNode[K, V]]{
		Size: size,
		Encode: func(v LeafNode[K, V], buf []byte) {
			off := 0
			PutInt32(buf[off:], int32(v.Size))
			off += 4
			PutInt64(buf[off:], v.Next)
			off += 8
			for i := 0; i < maxEntries; i++ {
				kvBuf := buf[off : off+kvSize]
				if i < len(v.Entries) {
					keyCodec.Encode(v.Entries[i].Key, kvBuf[:keyCodec.Size])
					valueCodec.Encode(v.Entries[i].Value, kvBuf[keyCodec.Size:])
				} else {
					for j := range kvBuf {
						kvBuf[j] = 0
					}
				}
				off += kvSize
			}
		},
		Decode: func(buf []byte) LeafNode[K, V] {
			off := 0
			size := int(GetInt32(buf[off:]))
			off += 4
			next := GetInt64(buf[off:])
			off += 8
			entries := make([]KV[K, V], size)
			for i := 0; i < maxEntries; i++ {
				kvBuf := buf[off : off+kvSize]
				if i < size {
					entries[i] = KV[K, V]{
						Key:   keyCodec.Decode(kvBuf[:keyCodec.Size]),
						Value: valueCodec.Decode(kvBuf[keyCodec.Size:]),
					}
				}
				off += kvSize
			}
			return LeafNode[K, V]{Next: next, Entries: entries, Size: size}
		},
	}
}
