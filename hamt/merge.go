package hamt

// Merge combines two tries into one, resolving any key present on both
// sides with combine. Used by the private forest to reconcile concurrent
// writers (spec §4.3, §4.4): combine is typically set union over CIDs.
func Merge[K Key, V any](a, b *Node[K, V], combine func(V, V) V) *Node[K, V] {
	return mergeNodes(a, b, 0, combine)
}

func mergeNodes[K Key, V any](a, b *Node[K, V], depth int, combine func(V, V) V) *Node[K, V] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &Node[K, V]{}
	union := a.Bitmap | b.Bitmap
	for slot := 0; slot < 16; slot++ {
		bit := uint16(1) << uint(slot)
		if union&bit == 0 {
			continue
		}
		aIdx, aOk := a.slotIndex(slot)
		bIdx, bOk := b.slotIndex(slot)

		var merged Pointer[K, V]
		switch {
		case aOk && bOk:
			merged = mergePointer(a.Pointers[aIdx], b.Pointers[bIdx], depth, combine)
		case aOk:
			merged = a.Pointers[aIdx]
		default:
			merged = b.Pointers[bIdx]
		}
		out.Bitmap |= bit
		out.Pointers = append(out.Pointers, merged)
	}
	return out
}

func mergePointer[K Key, V any](a, b Pointer[K, V], depth int, combine func(V, V) V) Pointer[K, V] {
	switch {
	case a.Leaf != nil && b.Leaf != nil:
		if Hash[K](a.Leaf.Pairs[0].Key) == Hash[K](b.Leaf.Pairs[0].Key) {
			return Pointer[K, V]{Leaf: mergeLeaves(a.Leaf, b.Leaf, combine)}
		}
		// Different hashes sharing this slot: split into a child node, as
		// insert does, so a leaf only ever holds full-hash collisions.
		return Pointer[K, V]{Child: insertLeafIntoNode(leafAsNode(a.Leaf, depth+1), depth+1, b.Leaf, combine)}
	case a.Leaf != nil:
		return Pointer[K, V]{Child: insertLeafIntoNode(b.Child, depth+1, a.Leaf, combine)}
	case b.Leaf != nil:
		return Pointer[K, V]{Child: insertLeafIntoNode(a.Child, depth+1, b.Leaf, combine)}
	default:
		return Pointer[K, V]{Child: mergeNodes(a.Child, b.Child, depth+1, combine)}
	}
}

func mergeLeaves[K Key, V any](a, b *Leaf[K, V], combine func(V, V) V) *Leaf[K, V] {
	pairs := make([]Pair[K, V], len(a.Pairs))
	copy(pairs, a.Pairs)

	for _, bp := range b.Pairs {
		found := false
		for i, ap := range pairs {
			if keysEqual(ap.Key, bp.Key) {
				pairs[i].Value = combine(ap.Value, bp.Value)
				found = true
				break
			}
		}
		if !found {
			pairs = append(pairs, bp)
		}
	}
	return &Leaf[K, V]{Pairs: pairs}
}

func insertLeafIntoNode[K Key, V any](node *Node[K, V], depth int, leaf *Leaf[K, V], combine func(V, V) V) *Node[K, V] {
	out := node
	for _, p := range leaf.Pairs {
		h := Hash[K](p.Key)
		out = insertCombine(out, depth, h, p.Key, p.Value, combine)
	}
	return out
}

func insertCombine[K Key, V any](node *Node[K, V], depth int, h [32]byte, key K, value V, combine func(V, V) V) *Node[K, V] {
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
		if lh == h || depth+1 >= MaxDepth {
			return node.withPointerAt(slot, Pointer[K, V]{Leaf: upsertCombine(existing.Leaf, key, value, combine)})
		}
		child := insert[K, V](nil, depth+1, lh, existing.Leaf.Pairs[0].Key, existing.Leaf.Pairs[0].Value)
		for _, p := range existing.Leaf.Pairs[1:] {
			child = insert(child, depth+1, lh, p.Key, p.Value)
		}
		child = insertCombine(child, depth+1, h, key, value, combine)
		return node.withPointerAt(slot, Pointer[K, V]{Child: child})
	}

	newChild := insertCombine(existing.Child, depth+1, h, key, value, combine)
	return node.withPointerAt(slot, Pointer[K, V]{Child: newChild})
}

func upsertCombine[K Key, V any](l *Leaf[K, V], key K, value V, combine func(V, V) V) *Leaf[K, V] {
	pairs := make([]Pair[K, V], len(l.Pairs))
	copy(pairs, l.Pairs)
	for i, p := range pairs {
		if keysEqual(p.Key, key) {
			pairs[i].Value = combine(p.Value, value)
			return &Leaf[K, V]{Pairs: pairs}
		}
	}
	pairs = append(pairs, Pair[K, V]{Key: key, Value: value})
	return &Leaf[K, V]{Pairs: pairs}
}
