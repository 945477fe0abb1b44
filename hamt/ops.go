package hamt

// Set inserts or replaces the value at key, returning a new root. Subtrees
// untouched by the insertion are shared with root.
func Set[K Key, V any](root *Node[K, V], key K, value V) *Node[K, V] {
	h := Hash[K](key)
	return insert(root, 0, h, key, value)
}

// Get looks up key, descending at most MaxDepth levels.
func Get[K Key, V any](root *Node[K, V], key K) (V, bool) {
	h := Hash[K](key)
	node := root
	for depth := 0; node != nil; depth++ {
		slot := nibble(h, depth)
		idx, occupied := node.slotIndex(slot)
		if !occupied {
			var zero V
			return zero, false
		}
		p := node.Pointers[idx]
		if p.Leaf != nil {
			return p.Leaf.get(key)
		}
		node = p.Child
	}
	var zero V
	return zero, false
}

// GetByHash looks up every pair whose key hashes to h, without needing to
// reconstruct the original key. Used by the private forest, whose callers
// frequently hold only a label hash (spec §4.3's get_by_hash).
func GetByHash[K Key, V any](root *Node[K, V], h [32]byte) ([]Pair[K, V], bool) {
	node := root
	for depth := 0; node != nil; depth++ {
		slot := nibble(h, depth)
		idx, occupied := node.slotIndex(slot)
		if !occupied {
			return nil, false
		}
		p := node.Pointers[idx]
		if p.Leaf != nil {
			if len(p.Leaf.Pairs) == 0 {
				return nil, false
			}
			if Hash[K](p.Leaf.Pairs[0].Key) != h {
				return nil, false
			}
			return p.Leaf.Pairs, true
		}
		node = p.Child
	}
	return nil, false
}

// Remove deletes key, returning the new root and whether key was present.
// An internal node left with a single leaf child collapses back into that
// leaf at the parent's slot; the root itself is never collapsed to
// anything other than a *Node, so the root-collapsing case spec §4.3 warns
// against cannot occur by construction.
func Remove[K Key, V any](root *Node[K, V], key K) (*Node[K, V], bool) {
	h := Hash[K](key)
	return remove(root, 0, h, key)
}

// RemoveByHash deletes whatever pair(s) hash to h without needing the
// original key material, mirroring GetByHash. Because removal by hash
// alone can't distinguish individual keys within a (cryptographically
// negligible, but HAMT-legal) full-hash collision leaf, it removes the
// entire leaf and returns the first pair's value. Callers that rely on
// genuine multi-key leaves should use Remove instead.
func RemoveByHash[K Key, V any](root *Node[K, V], h [32]byte) (*Node[K, V], V, bool) {
	return removeByHash(root, 0, h)
}

func removeByHash[K Key, V any](node *Node[K, V], depth int, h [32]byte) (*Node[K, V], V, bool) {
	var zero V
	if node == nil {
		return nil, zero, false
	}
	slot := nibble(h, depth)
	idx, occupied := node.slotIndex(slot)
	if !occupied {
		return node, zero, false
	}

	p := node.Pointers[idx]
	if p.Leaf != nil {
		if len(p.Leaf.Pairs) == 0 || Hash[K](p.Leaf.Pairs[0].Key) != h {
			return node, zero, false
		}
		val := p.Leaf.Pairs[0].Value
		return node.withoutSlot(slot), val, true
	}

	newChild, val, removed := removeByHash[K, V](p.Child, depth+1, h)
	if !removed {
		return node, zero, false
	}
	if newChild == nil || len(newChild.Pointers) == 0 {
		return node.withoutSlot(slot), val, true
	}
	if len(newChild.Pointers) == 1 && newChild.Pointers[0].Leaf != nil {
		return node.withPointerAt(slot, Pointer[K, V]{Leaf: newChild.Pointers[0].Leaf}), val, true
	}
	return node.withPointerAt(slot, Pointer[K, V]{Child: newChild}), val, true
}

func insert[K Key, V any](node *Node[K, V], depth int, h [32]byte, key K, value V) *Node[K, V] {
	slot := nibble(h, depth)
	if node == nil {
		return singleLeafNode[K, V](slot, &Leaf[K, V]{Pairs: []Pair[K, V]{{Key: key, Value: value}}})
	}

	idx, occupied := node.slotIndex(slot)
	if !occupied {
		return node.withPointerAt(slot, Pointer[K, V]{Leaf: &Leaf[K, V]{Pairs: []Pair[K, V]{{Key: key, Value: value}}}})
	}

	existing := node.Pointers[idx]
	if existing.Leaf != nil {
		lh := Hash[K](existing.Leaf.Pairs[0].Key)
		if lh == h {
			return node.withPointerAt(slot, Pointer[K, V]{Leaf: existing.Leaf.withUpserted(key, value)})
		}
		if depth+1 >= MaxDepth {
			// Hash agreed on every nibble but differs overall: would require a
			// SHA3-256 collision. Fold in conservatively rather than lose data.
			return node.withPointerAt(slot, Pointer[K, V]{Leaf: existing.Leaf.withUpserted(key, value)})
		}
		child := insert[K, V](nil, depth+1, lh, existing.Leaf.Pairs[0].Key, existing.Leaf.Pairs[0].Value)
		for _, p := range existing.Leaf.Pairs[1:] {
			child = insert(child, depth+1, lh, p.Key, p.Value)
		}
		child = insert(child, depth+1, h, key, value)
		return node.withPointerAt(slot, Pointer[K, V]{Child: child})
	}

	newChild := insert(existing.Child, depth+1, h, key, value)
	return node.withPointerAt(slot, Pointer[K, V]{Child: newChild})
}

func remove[K Key, V any](node *Node[K, V], depth int, h [32]byte, key K) (*Node[K, V], bool) {
	if node == nil {
		return nil, false
	}
	slot := nibble(h, depth)
	idx, occupied := node.slotIndex(slot)
	if !occupied {
		return node, false
	}

	p := node.Pointers[idx]
	if p.Leaf != nil {
		newLeaf, removed := p.Leaf.without(key)
		if !removed {
			return node, false
		}
		if len(newLeaf.Pairs) == 0 {
			return node.withoutSlot(slot), true
		}
		return node.withPointerAt(slot, Pointer[K, V]{Leaf: newLeaf}), true
	}

	newChild, removed := remove(p.Child, depth+1, h, key)
	if !removed {
		return node, false
	}
	if newChild == nil || len(newChild.Pointers) == 0 {
		return node.withoutSlot(slot), true
	}
	if len(newChild.Pointers) == 1 && newChild.Pointers[0].Leaf != nil {
		return node.withPointerAt(slot, Pointer[K, V]{Leaf: newChild.Pointers[0].Leaf}), true
	}
	return node.withPointerAt(slot, Pointer[K, V]{Child: newChild}), true
}
