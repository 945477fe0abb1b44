package nameaccumulator

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// SegmentBits is the bit width of a name segment: a 256-bit prime, per
// spec §3.1.
const SegmentBits = 256

// maxHashToPrimeAttempts bounds the hash-to-prime search so a caller never
// blocks indefinitely; in practice a 256-bit candidate is prime within a
// few hundred trials (prime density near 2^256 is roughly 1/177).
const maxHashToPrimeAttempts = 100_000

// Segment is a single path component in a name: a 256-bit prime exponent
// applied to the accumulator's group element.
type Segment struct {
	n *big.Int
}

// RandomSegment samples a random 256-bit prime segment.
func RandomSegment(rnd io.Reader) (Segment, error) {
	p, err := rand.Prime(rnd, SegmentBits)
	if err != nil {
		return Segment{}, fmt.Errorf("nameaccumulator: sampling prime: %w", err)
	}
	return Segment{n: p}, nil
}

// SegmentFromDigest deterministically derives a segment from a 32-byte
// digest by hashing-to-prime: repeatedly rehash the candidate until a
// probable prime is found. This is how derived labels (inumbers, shard
// indices) become accumulator-compatible segments, §6.3.
func SegmentFromDigest(digest [32]byte) (Segment, error) {
	candidate := digest
	for i := 0; i < maxHashToPrimeAttempts; i++ {
		n := new(big.Int).SetBytes(candidate[:])
		n.SetBit(n, 0, 1) // odd candidates only
		if n.ProbablyPrime(20) {
			return Segment{n: n}, nil
		}
		candidate = sha3.Sum256(candidate[:])
	}
	return Segment{}, fmt.Errorf("nameaccumulator: no prime found within %d attempts", maxHashToPrimeAttempts)
}

// SegmentFromBytes decodes a 32-byte little-endian segment as found on the
// wire (§6.2). Unlike SegmentFromDigest it does not re-derive or verify
// primality: the bytes are trusted to have come from a prior Bytes() call.
func SegmentFromBytes(b []byte) (Segment, error) {
	if len(b) != 32 {
		return Segment{}, fmt.Errorf("nameaccumulator: segment must be 32 bytes, got %d", len(b))
	}
	return Segment{n: leToBigInt(b)}, nil
}

// Bytes serializes the segment as 32 little-endian bytes, per spec §6.2.
func (s Segment) Bytes() []byte {
	out := make([]byte, 32)
	putLE256(out, s.n)
	return out
}

// Equal reports whether two segments are the same prime.
func (s Segment) Equal(other Segment) bool {
	if s.n == nil || other.n == nil {
		return s.n == other.n
	}
	return s.n.Cmp(other.n) == 0
}
