package storage

import "sort"

// Find returns every value stored under key, in ascending value order.
func (t *BPTree[K, V]) Find(key K) ([]V, error) {
	if t.Empty() {
		return nil, nil
	}
	_, _, leaf, err := t.descendByKey(key)
	if err != nil {
		return nil, err
	}

	i := sort.Search(leaf.Size, func(i int) bool { return !t.keyLess(leaf.Entries[i].Key, key) })
	var result []V
	for {
		for ; i < leaf.Size; i++ {
			if t.keyLess(key, leaf.Entries[i].Key) {
				return result, nil
			}
			result = append(result, leaf.Entries[i].Value)
		}
		if leaf.Next == -1 {
			return result, nil
		}
		leaf, err = t.readLeaf(leaf.Next)
		if err != nil {
			return nil, err
		}
		i = 0
	}
}

// Exists reports whether key maps to at least one value.
func (t *BPTree[K, V]) Exists(key K) (bool, error) {
	if t.Empty() {
		return false, nil
	}
	_, _, leaf, err := t.descendByKey(key)
	if err != nil {
		return false, err
	}
	i := sort.Search(leaf.Size, func(i int) bool { return !t.keyLess(leaf.Entries[i].Key, key) })
	if i == leaf.Size && leaf.Next != -1 {
		leaf, err = t.readLeaf(leaf.Next)
		if err != nil {
			return false, err
		}
		i = 0
	}
	return i < leaf.Size && t.keyEqual(leaf.Entries[i].Key, key), nil
}

// FindOne returns the single value expected under key, for trees used as
// strict (unique key) maps rather than multimaps. It reports ok=false if
// key is absent.
func (t *BPTree[K, V]) FindOne(key K) (value V, ok bool, err error) {
	values, err := t.Find(key)
	if err != nil {
		return value, false, err
	}
	if len(values) == 0 {
		return value, false, nil
	}
	return values[0], true, nil
}
