package storage

import "sort"

// Insert adds (key, value) to the tree. Inserting a pair that already
// exists is a silent no-op, matching the tree's use as a multimap where
// callers de-duplicate by the full pair, not just the key.
func (t *BPTree[K, V]) Insert(key K, value V) error {
	target := KV[K, V]{Key: key, Value: value}

	if t.Empty() {
		leaf := LeafNode[K, V]{Next: -1, Entries: []KV[K, V]{target}, Size: 1}
		addr, err := t.writeLeaf(leaf)
		if err != nil {
			return err
		}
		t.root = addr
		t.height = 0
		return t.persistHeader()
	}

	path, leafAddr, leaf, err := t.descendByPair(target)
	if err != nil {
		return err
	}

	pos := sort.Search(leaf.Size, func(i int) bool { return !t.pairLess(leaf.Entries[i], target) })
	if pos < leaf.Size && t.pairEqual(leaf.Entries[pos], target) {
		return nil
	}

	entries := make([]KV[K, V], leaf.Size+1)
	copy(entries, leaf.Entries[:pos])
	entries[pos] = target
	copy(entries[pos+1:], leaf.Entries[pos:leaf.Size])
	leaf.Entries = entries
	leaf.Size++

	if leaf.Size <= t.leafSize {
		return t.writeBackLeaf(leafAddr, leaf)
	}
	return t.splitLeaf(path, leafAddr, leaf)
}

func (t *BPTree[K, V]) splitLeaf(path []pathFrame[K, V], addr int64, leaf LeafNode[K, V]) error {
	mid := (t.leafSize + 1) / 2

	left := LeafNode[K, V]{
		Entries: append([]KV[K, V]{}, leaf.Entries[:mid]...),
		Size:    mid,
	}
	right := LeafNode[K, V]{
		Entries: append([]KV[K, V]{}, leaf.Entries[mid:leaf.Size]...),
		Size:    leaf.Size - mid,
		Next:    leaf.Next,
	}

	rightAddr, err := t.writeLeaf(right)
	if err != nil {
		return err
	}
	left.Next = rightAddr
	if err := t.writeBackLeaf(addr, left); err != nil {
		return err
	}

	return t.insertIntoParent(path, right.Entries[0], rightAddr)
}

// insertIntoParent threads a new separator (and the right child it
// introduces) up through path, splitting ancestor index nodes as needed
// and growing the tree's height when the root itself splits.
func (t *BPTree[K, V]) insertIntoParent(path []pathFrame[K, V], sep KV[K, V], rightChild int64) error {
	if len(path) == 0 {
		newRoot := IndexNode[K, V]{
			Children: []int64{t.root, rightChild},
			Keys:     []KV[K, V]{sep},
			Size:     1,
		}
		addr, err := t.writeIndex(newRoot)
		if err != nil {
			return err
		}
		t.root = addr
		t.height++
		return t.persistHeader()
	}

	frame := path[len(path)-1]
	rest := path[:len(path)-1]
	node := frame.node
	pos := frame.childIdx

	keys := make([]KV[K, V], node.Size+1)
	copy(keys, node.Keys[:pos])
	keys[pos] = sep
	copy(keys[pos+1:], node.Keys[pos:node.Size])

	children := make([]int64, node.Size+2)
	copy(children, node.Children[:pos+1])
	children[pos+1] = rightChild
	copy(children[pos+2:], node.Children[pos+1:node.Size+1])

	node.Keys = keys
	node.Children = children
	node.Size++

	if node.Size <= t.order {
		return t.writeBackIndex(frame.addr, node)
	}
	return t.splitIndex(rest, frame.addr, node)
}

func (t *BPTree[K, V]) splitIndex(path []pathFrame[K, V], addr int64, node IndexNode[K, V]) error {
	mid := (t.order + 1) / 2
	upKey := node.Keys[mid]

	left := IndexNode[K, V]{
		Children: append([]int64{}, node.Children[:mid+1]...),
		Keys:     append([]KV[K, V]{}, node.Keys[:mid]...),
		Size:     mid,
	}
	right := IndexNode[K, V]{
		Children: append([]int64{}, node.Children[mid+1:]...),
		Keys:     append([]KV[K, V]{}, node.Keys[mid+1:]...),
		Size:     node.Size - mid - 1,
	}

	if err := t.writeBackIndex(addr, left); err != nil {
		return err
	}
	rightAddr, err := t.writeIndex(right)
	if err != nil {
		return err
	}
	return t.insertIntoParent(path, upKey, rightAddr)
}
