package nameaccumulator

// Name is a path commitment: a base accumulator plus a list of segments
// extending it, with the folded result cached lazily. Two Names that fold
// to the same accumulator are semantically equal regardless of how they
// got there.
type Name struct {
	relativeTo Accumulator
	segments   []Segment
	cached     *Accumulator
}

// NameFromAccumulator wraps an already-computed accumulator as a Name with
// no further segments, used as the root of a tree.
func NameFromAccumulator(acc Accumulator) Name {
	return Name{relativeTo: acc, cached: &acc}
}

// Extend derives a child name by appending a single segment. The returned
// Name is rooted at this name's folded accumulator, so computing its own
// fold is a single Add rather than re-folding the whole ancestor chain.
func (n Name) Extend(setup Setup, seg Segment) Name {
	base := n.AsAccumulator(setup)
	return Name{relativeTo: base, segments: []Segment{seg}, cached: nil}
}

// AsAccumulator folds relativeTo and segments into a single accumulator,
// memoizing the result.
func (n *Name) AsAccumulator(setup Setup) Accumulator {
	if n.cached != nil {
		return *n.cached
	}
	acc := n.relativeTo.AddBatch(n.segments, setup)
	n.cached = &acc
	return acc
}

// Equal reports whether two names fold to the same accumulator.
func (n *Name) Equal(other *Name, setup Setup) bool {
	return n.AsAccumulator(setup).Equal(other.AsAccumulator(setup))
}

// Bytes returns the little-endian encoding of this name's folded
// accumulator, memoizing the fold exactly as AsAccumulator does. Used
// wherever a name needs to be hashed as an opaque byte string, e.g. a
// forest label hash (spec §6.3).
func (n *Name) Bytes(setup Setup) []byte {
	acc := n.AsAccumulator(setup)
	return acc.Bytes()
}
