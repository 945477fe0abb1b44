package nameaccumulator

import "math/big"

// AccumulatorBytes is the serialized width of an accumulator state, per
// spec §3.1, §6.2.
const AccumulatorBytes = 256

// Accumulator is a single group element committing to a set of segments
// added from some base (usually the setup's generator, or another
// accumulator's state for a relative name). Adding is commutative and
// injective on sets of segments: the accumulator commits to the *set*,
// not the order, of segments added.
type Accumulator struct {
	state *big.Int
}

// Empty returns the generator of setup's group: the accumulator with no
// segments added.
func Empty(setup Setup) Accumulator {
	return Accumulator{state: new(big.Int).Set(setup.Generator)}
}

// FromBytes decodes a 256-byte little-endian accumulator state, as found
// on the wire (§6.2).
func FromBytes(b []byte) Accumulator {
	return Accumulator{state: leToBigInt(b)}
}

// Add folds a single segment into the accumulator: state <- state^segment
// mod N.
func (a Accumulator) Add(seg Segment, setup Setup) Accumulator {
	next := new(big.Int).Exp(a.state, seg.n, setup.Modulus)
	return Accumulator{state: next}
}

// AddBatch folds multiple segments at once, equivalent to state <-
// state^(prod(segments)) mod N — cheaper than calling Add in a loop
// because it does a single modular exponentiation.
func (a Accumulator) AddBatch(segs []Segment, setup Setup) Accumulator {
	if len(segs) == 0 {
		return a
	}
	product := big.NewInt(1)
	for _, s := range segs {
		product.Mul(product, s.n)
	}
	next := new(big.Int).Exp(a.state, product, setup.Modulus)
	return Accumulator{state: next}
}

// Equal reports whether two accumulators hold the same group element.
func (a Accumulator) Equal(other Accumulator) bool {
	if a.state == nil || other.state == nil {
		return a.state == other.state
	}
	return a.state.Cmp(other.state) == 0
}

// Bytes serializes the accumulator as 256 little-endian bytes (§6.2).
func (a Accumulator) Bytes() []byte {
	out := make([]byte, AccumulatorBytes)
	putLE256(out, a.state)
	return out
}
