package storage

import "sort"

// Remove deletes the exact (key, value) pair from the tree. Removing a
// pair that is not present is a silent no-op.
func (t *BPTree[K, V]) Remove(key K, value V) error {
	if t.Empty() {
		return nil
	}
	target := KV[K, V]{Key: key, Value: value}
	path, leafAddr, leaf, err := t.descendByPair(target)
	if err != nil {
		return err
	}

	pos := sort.Search(leaf.Size, func(i int) bool { return !t.pairLess(leaf.Entries[i], target) })
	if pos >= leaf.Size || !t.pairEqual(leaf.Entries[pos], target) {
		return nil
	}

	entries := make([]KV[K, V], leaf.Size-1)
	copy(entries, leaf.Entries[:pos])
	copy(entries[pos:], leaf.Entries[pos+1:leaf.Size])
	leaf.Entries = entries
	leaf.Size--

	return t.rebalanceLeaf(path, leafAddr, leaf)
}

func (t *BPTree[K, V]) minLeafSize() int {
	return (t.leafSize + 1 + 2) / 3 // ceil((L+1)/3)
}

func (t *BPTree[K, V]) minIndexSize() int {
	return (t.order + 2) / 3 // ceil(M/3)
}

func (t *BPTree[K, V]) rebalanceLeaf(path []pathFrame[K, V], addr int64, leaf LeafNode[K, V]) error {
	if len(path) == 0 {
		if leaf.Size == 0 {
			t.root = -1
			t.height = 0
			return t.persistHeader()
		}
		return t.writeBackLeaf(addr, leaf)
	}
	if leaf.Size >= t.minLeafSize() {
		return t.writeBackLeaf(addr, leaf)
	}

	parentFrame := path[len(path)-1]
	rest := path[:len(path)-1]
	parent := parentFrame.node
	childIdx := parentFrame.childIdx
	minLeaf := t.minLeafSize()

	if childIdx > 0 {
		leftAddr := parent.Children[childIdx-1]
		leftLeaf, err := t.readLeaf(leftAddr)
		if err != nil {
			return err
		}
		if leftLeaf.Size > minLeaf {
			moved := leftLeaf.Entries[leftLeaf.Size-1]
			leftLeaf.Entries = leftLeaf.Entries[:leftLeaf.Size-1]
			leftLeaf.Size--

			entries := make([]KV[K, V], leaf.Size+1)
			entries[0] = moved
			copy(entries[1:], leaf.Entries[:leaf.Size])
			leaf.Entries = entries
			leaf.Size++

			if err := t.writeBackLeaf(leftAddr, leftLeaf); err != nil {
				return err
			}
			if err := t.writeBackLeaf(addr, leaf); err != nil {
				return err
			}
			parent.Keys[childIdx-1] = leaf.Entries[0]
			return t.writeBackIndex(parentFrame.addr, parent)
		}
	}

	if childIdx < parent.Size {
		rightAddr := parent.Children[childIdx+1]
		rightLeaf, err := t.readLeaf(rightAddr)
		if err != nil {
			return err
		}
		if rightLeaf.Size > minLeaf {
			moved := rightLeaf.Entries[0]
			rightLeaf.Entries = append([]KV[K, V]{}, rightLeaf.Entries[1:rightLeaf.Size]...)
			rightLeaf.Size--

			leaf.Entries = append(leaf.Entries[:leaf.Size], moved)
			leaf.Size++

			if err := t.writeBackLeaf(addr, leaf); err != nil {
				return err
			}
			if err := t.writeBackLeaf(rightAddr, rightLeaf); err != nil {
				return err
			}
			parent.Keys[childIdx] = rightLeaf.Entries[0]
			return t.writeBackIndex(parentFrame.addr, parent)
		}
	}

	if childIdx > 0 {
		leftAddr := parent.Children[childIdx-1]
		leftLeaf, err := t.readLeaf(leftAddr)
		if err != nil {
			return err
		}
		leftLeaf.Entries = append(leftLeaf.Entries[:leftLeaf.Size], leaf.Entries[:leaf.Size]...)
		leftLeaf.Size += leaf.Size
		leftLeaf.Next = leaf.Next
		if err := t.writeBackLeaf(leftAddr, leftLeaf); err != nil {
			return err
		}
		t.leaf.cache.Invalidate(addr)
		return t.removeFromParent(rest, parentFrame.addr, parent, childIdx-1, childIdx)
	}

	rightAddr := parent.Children[childIdx+1]
	rightLeaf, err := t.readLeaf(rightAddr)
	if err != nil {
		return err
	}
	leaf.Entries = append(leaf.Entries[:leaf.Size], rightLeaf.Entries[:rightLeaf.Size]...)
	leaf.Size += rightLeaf.Size
	leaf.Next = rightLeaf.Next
	if err := t.writeBackLeaf(addr, leaf); err != nil {
		return err
	}
	t.leaf.cache.Invalidate(rightAddr)
	return t.removeFromParent(rest, parentFrame.addr, parent, childIdx, childIdx+1)
}

func (t *BPTree[K, V]) removeFromParent(path []pathFrame[K, V], addr int64, node IndexNode[K, V], keyIdx, childIdx int) error {
	keys := make([]KV[K, V], node.Size-1)
	copy(keys, node.Keys[:keyIdx])
	copy(keys[keyIdx:], node.Keys[keyIdx+1:node.Size])

	children := make([]int64, node.Size)
	copy(children, node.Children[:childIdx])
	copy(children[childIdx:], node.Children[childIdx+1:node.Size+1])

	node.Keys = keys
	node.Children = children
	node.Size--

	return t.rebalanceIndex(path, addr, node)
}

func (t *BPTree[K, V]) rebalanceIndex(path []pathFrame[K, V], addr int64, node IndexNode[K, V]) error {
	if len(path) == 0 {
		if node.Size == 0 {
			t.root = node.Children[0]
			t.height--
			t.index.cache.Invalidate(addr)
			return t.persistHeader()
		}
		return t.writeBackIndex(addr, node)
	}
	minIdx := t.minIndexSize()
	if node.Size >= minIdx {
		return t.writeBackIndex(addr, node)
	}

	parentFrame := path[len(path)-1]
	rest := path[:len(path)-1]
	parent := parentFrame.node
	childIdx := parentFrame.childIdx

	if childIdx > 0 {
		leftAddr := parent.Children[childIdx-1]
		leftNode, err := t.readIndex(leftAddr)
		if err != nil {
			return err
		}
		if leftNode.Size > minIdx {
			sep := parent.Keys[childIdx-1]
			movedChild := leftNode.Children[leftNode.Size]
			movedKey := leftNode.Keys[leftNode.Size-1]
			leftNode.Children = leftNode.Children[:leftNode.Size]
			leftNode.Keys = leftNode.Keys[:leftNode.Size-1]
			leftNode.Size--

			node.Keys = append([]KV[K, V]{sep}, node.Keys...)
			node.Children = append([]int64{movedChild}, node.Children...)
			node.Size++

			parent.Keys[childIdx-1] = movedKey

			if err := t.writeBackIndex(leftAddr, leftNode); err != nil {
				return err
			}
			if err := t.writeBackIndex(addr, node); err != nil {
				return err
			}
			return t.writeBackIndex(parentFrame.addr, parent)
		}
	}

	if childIdx < parent.Size {
		rightAddr := parent.Children[childIdx+1]
		rightNode, err := t.readIndex(rightAddr)
		if err != nil {
			return err
		}
		if rightNode.Size > minIdx {
			sep := parent.Keys[childIdx]
			movedChild := rightNode.Children[0]
			movedKey := rightNode.Keys[0]
			rightNode.Children = append([]int64{}, rightNode.Children[1:rightNode.Size+1]...)
			rightNode.Keys = append([]KV[K, V]{}, rightNode.Keys[1:rightNode.Size]...)
			rightNode.Size--

			node.Keys = append(node.Keys, sep)
			node.Children = append(node.Children, movedChild)
			node.Size++

			parent.Keys[childIdx] = movedKey

			if err := t.writeBackIndex(addr, node); err != nil {
				return err
			}
			if err := t.writeBackIndex(rightAddr, rightNode); err != nil {
				return err
			}
			return t.writeBackIndex(parentFrame.addr, parent)
		}
	}

	if childIdx > 0 {
		leftAddr := parent.Children[childIdx-1]
		leftNode, err := t.readIndex(leftAddr)
		if err != nil {
			return err
		}
		sep := parent.Keys[childIdx-1]
		leftNode.Keys = append(leftNode.Keys, sep)
		leftNode.Keys = append(leftNode.Keys, node.Keys...)
		leftNode.Children = append(leftNode.Children, node.Children...)
		leftNode.Size = leftNode.Size + 1 + node.Size
		if err := t.writeBackIndex(leftAddr, leftNode); err != nil {
			return err
		}
		t.index.cache.Invalidate(addr)
		return t.removeFromParent(rest, parentFrame.addr, parent, childIdx-1, childIdx)
	}

	rightAddr := parent.Children[childIdx+1]
	rightNode, err := t.readIndex(rightAddr)
	if err != nil {
		return err
	}
	sep := parent.Keys[childIdx]
	node.Keys = append(node.Keys, sep)
	node.Keys = append(node.Keys, rightNode.Keys...)
	node.Children = append(node.Children, rightNode.Children...)
	node.Size = node.Size + 1 + rightNode.Size
	if err := t.writeBackIndex(addr, node); err != nil {
		return err
	}
	t.index.cache.Invalidate(rightAddr)
	return t.removeFromParent(rest, parentFrame.addr, parent, childIdx, childIdx+1)
}
