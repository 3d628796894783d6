package storage

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DefaultOrder is the normal (pre-overflow) separator capacity of an
// index node, and DefaultLeafSize the normal entry capacity of a leaf.
// A page's size on disk is that capacity times the encoded key+value
// width, so it varies with the record type a tree stores.
const (
	DefaultOrder    = 56
	DefaultLeafSize = 56
)

// pathFrame records one step of a root-to-leaf descent: the index node at
// addr, and the position within it (childIdx) that was followed further
// down. childIdx doubles as the insertion point should that child split,
// and as the sibling-lookup anchor during rebalancing.
type pathFrame[K, V any] struct {
	addr     int64
	node     IndexNode[K, V]
	childIdx int
}

// BPTree is an on-disk B+ tree multimap: a single key may map to many
// values, all of which are visited in (key, value) order. Index nodes and
// leaves live in separate heap files so each can be cached and sized
// independently, mirroring how the engine's original reference
// implementation split its tree into two backing files.
type BPTree[K, V any] struct {
	index *PageStore[IndexNode[K, V]]
	leaf  *PageStore[LeafNode[K, V]]

	keyLess   func(a, b K) bool
	valueLess func(a, b V) bool

	order    int
	leafSize int

	root   int64
	height int
}

// Options configures a BPTree beyond its key/value codecs and comparators.
type Options struct {
	Order         int
	LeafSize      int
	IndexCacheCap int
	LeafCacheCap  int
}

// DefaultOptions returns the engine's standard tree tuning.
func DefaultOptions() Options {
	return Options{
		Order:         DefaultOrder,
		LeafSize:      DefaultLeafSize,
		IndexCacheCap: 1024,
		LeafCacheCap:  2048,
	}
}

// Open opens (or creates) the pair of heap files backing a named B+ tree
// under dir: "<name>.index" and "<name>.block".
func Open[K, V any](dir, name string, keyCodec Codec[K], valueCodec Codec[V], keyLess func(a, b K) bool, valueLess func(a, b V) bool, opts Options) (*BPTree[K, V], error) {
	if opts.Order <= 0 {
		opts.Order = DefaultOrder
	}
	if opts.LeafSize <= 0 {
		opts.LeafSize = DefaultLeafSize
	}

	idxCodec := indexNodeCodec[K, V](keyCodec, valueCodec, opts.Order)
	leafCodec := leafNodeCodec[K, V](keyCodec, valueCodec, opts.LeafSize)

	idxHeap, created, err := OpenHeap(filepath.Join(dir, name+".index"), 2, idxCodec)
	if err != nil {
		return nil, errors.Wrapf(err, "open index heap for tree %s", name)
	}
	leafHeap, _, err := OpenHeap(filepath.Join(dir, name+".block"), 0, leafCodec)
	if err != nil {
		return nil, errors.Wrapf(err, "open leaf heap for tree %s", name)
	}

	t := &BPTree[K, V]{
		index:     NewPageStore(idxHeap, opts.IndexCacheCap),
		leaf:      NewPageStore(leafHeap, opts.LeafCacheCap),
		keyLess:   keyLess,
		valueLess: valueLess,
		order:     opts.Order,
		leafSize:  opts.LeafSize,
	}

	if created {
		t.root = -1
		t.height = 0
		if err := t.persistHeader(); err != nil {
			return nil, err
		}
	} else {
		root, err := idxHeap.GetInfo(1)
		if err != nil {
			return nil, err
		}
		height, err := idxHeap.GetInfo(2)
		if err != nil {
			return nil, err
		}
		t.root = root
		t.height = int(height)
	}
	return t, nil
}

func (t *BPTree[K, V]) persistHeader() error {
	if err := t.index.Heap().WriteInfo(1, t.root); err != nil {
		return err
	}
	return t.index.Heap().WriteInfo(2, int64(t.height))
}

// Flush writes back every dirty cached page and persists the root/height
// header slots.
func (t *BPTree[K, V]) Flush() error {
	if err := t.index.Flush(); err != nil {
		return err
	}
	if err := t.leaf.Flush(); err != nil {
		return err
	}
	return t.persistHeader()
}

// Close flushes and closes both backing heap files.
func (t *BPTree[K, V]) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if err := t.index.Close(); err != nil {
		return err
	}
	return t.leaf.Close()
}

// Remove deletes both backing heap files, used by the `clean` command.
func (t *BPTree[K, V]) Remove() error {
	if err := t.index.Remove(); err != nil {
		return err
	}
	return t.leaf.Remove()
}

// Empty reports whether the tree holds no entries.
func (t *BPTree[K, V]) Empty() bool {
	return t.root == -1
}

func (t *BPTree[K, V]) pairLess(a, b KV[K, V]) bool {
	if t.keyLess(a.Key, b.Key) {
		return true
	}
	if t.keyLess(b.Key, a.Key) {
		return false
	}
	return t.valueLess(a.Value, b.Value)
}

func (t *BPTree[K, V]) pairEqual(a, b KV[K, V]) bool {
	return !t.pairLess(a, b) && !t.pairLess(b, a)
}

func (t *BPTree[K, V]) keyEqual(a, b K) bool {
	return !t.keyLess(a, b) && !t.keyLess(b, a)
}

func (t *BPTree[K, V]) readIndex(addr int64) (IndexNode[K, V], error) {
	return t.index.Read(addr)
}

func (t *BPTree[K, V]) readLeaf(addr int64) (LeafNode[K, V], error) {
	return t.leaf.Read(addr)
}

func (t *BPTree[K, V]) writeBackIndex(addr int64, node IndexNode[K, V]) error {
	return t.index.Update(addr, node)
}

func (t *BPTree[K, V]) writeBackLeaf(addr int64, node LeafNode[K, V]) error {
	return t.leaf.Update(addr, node)
}

func (t *BPTree[K, V]) writeIndex(node IndexNode[K, V]) (int64, error) {
	return t.index.Append(node)
}

func (t *BPTree[K, V]) writeLeaf(node LeafNode[K, V]) (int64, error) {
	return t.leaf.Append(node)
}

// searchChildForKey finds the leftmost child of node that could hold key,
// i.e. the smallest i with key <= node.Keys[i].Key, or node.Size if key
// is greater than every separator.
func (t *BPTree[K, V]) searchChildForKey(node IndexNode[K, V], key K) int {
	return sort.Search(node.Size, func(i int) bool {
		return !t.keyLess(node.Keys[i].Key, key)
	})
}

// searchChildForPair finds the child of node that holds (or would hold) the
// exact pair (key, value), i.e. the smallest i with (key, value) <
// node.Keys[i], or node.Size if no separator is greater. A pair equal to a
// separator belongs to the separator's right-hand child. Used when
// descending to insert or remove a specific (key, value) entry rather than
// scanning every value for key.
func (t *BPTree[K, V]) searchChildForPair(node IndexNode[K, V], target KV[K, V]) int {
	return sort.Search(node.Size, func(i int) bool {
		return t.pairLess(target, node.Keys[i])
	})
}

// descendByKey walks from the root to the leftmost leaf that could contain
// key, recording the index-node path taken.
func (t *BPTree[K, V]) descendByKey(key K) ([]pathFrame[K, V], int64, LeafNode[K, V], error) {
	if t.height == 0 {
		leaf, err := t.readLeaf(t.root)
		return nil, t.root, leaf, err
	}
	var path []pathFrame[K, V]
	addr := t.root
	for lvl := 0; lvl < t.height; lvl++ {
		node, err := t.readIndex(addr)
		if err != nil {
			return nil, 0, LeafNode[K, V]{}, err
		}
		idx := t.searchChildForKey(node, key)
		path = append(path, pathFrame[K, V]{addr: addr, node: node, childIdx: idx})
		addr = node.Children[idx]
	}
	leaf, err := t.readLeaf(addr)
	return path, addr, leaf, err
}

// descendByPair walks from the root to the unique leaf that holds (or
// would hold) the exact pair (key, value).
func (t *BPTree[K, V]) descendByPair(target KV[K, V]) ([]pathFrame[K, V], int64, LeafNode[K, V], error) {
	if t.height == 0 {
		leaf, err := t.readLeaf(t.root)
		return nil, t.root, leaf, err
	}
	var path []pathFrame[K, V]
	addr := t.root
	for lvl := 0; lvl < t.height; lvl++ {
		node, err := t.readIndex(addr)
		if err != nil {
			return nil, 0, LeafNode[K, V]{}, err
		}
		idx := t.searchChildForPair(node, target)
		path = append(path, pathFrame[K, V]{addr: addr, node: node, childIdx: idx})
		addr = node.Children[idx]
	}
	leaf, err := t.readLeaf(addr)
	return path, addr, leaf, err
}
