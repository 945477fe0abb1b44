// Package ratchet implements the skip-ratchet key schedule (spec §3.1,
// §4.1): a three-stratum hash chain that names successive revisions of a
// private node and derives a forward-secure temporal key for each one.
//
// The three strata (large/medium/small) change at different rates: the
// small stratum changes every increment, the medium stratum every 256
// increments, the large stratum every 256*256 increments. This package
// advances only one increment at a time (Inc); it has no multi-step seek,
// so moving N revisions forward, including inside PreviousIter, costs N
// increments.
package ratchet

import (
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/crypto/sha3"
)

var log = logging.Logger("wnfs/ratchet")

// counterWrap is the number of increments before a stratum's counter
// wraps and the stratum above it advances.
const counterWrap = 256

// Ratchet is a single revision marker in the skip-ratchet chain.
type Ratchet struct {
	Large         [32]byte
	Medium        [32]byte
	MediumCounter uint8
	Small         [32]byte
	SmallCounter  uint8
}

func hash(label string, parts ...[]byte) [32]byte {
	h := sha3.New256()
	h.Write([]byte(label))
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Zero derives the initial ratchet for a node from a random 32-byte seed
// (the seed is chosen once, at node creation, and never reused).
func Zero(seed [32]byte) Ratchet {
	large := hash("wnfs/ratchet/large", seed[:])
	medium := hash("wnfs/ratchet/medium", large[:])
	small := hash("wnfs/ratchet/small", medium[:])
	return Ratchet{Large: large, Medium: medium, Small: small}
}

// Inc advances the ratchet by exactly one revision.
func (r Ratchet) Inc() Ratchet {
	next := r

	if r.SmallCounter == counterWrap-1 {
		// small stratum wraps: advance medium.
		if r.MediumCounter == counterWrap-1 {
			// medium stratum also wraps: advance large and reseed medium/small
			// from it, exactly as Zero does from a fresh seed.
			next.Large = hash("wnfs/ratchet/large", r.Large[:])
			next.Medium = hash("wnfs/ratchet/medium", next.Large[:])
			next.MediumCounter = 0
		} else {
			next.Medium = hash("wnfs/ratchet/medium", r.Medium[:])
			next.MediumCounter = r.MediumCounter + 1
		}
		next.Small = hash("wnfs/ratchet/small", next.Medium[:])
		next.SmallCounter = 0
		return next
	}

	next.Small = hash("wnfs/ratchet/small", r.Small[:])
	next.SmallCounter = r.SmallCounter + 1
	return next
}

// Equal reports whether two ratchets are the same revision.
func (r Ratchet) Equal(other Ratchet) bool {
	return r.Large == other.Large &&
		r.Medium == other.Medium &&
		r.MediumCounter == other.MediumCounter &&
		r.Small == other.Small &&
		r.SmallCounter == other.SmallCounter
}

// DeriveKey computes the temporal key for this revision: H_temporal(large
// || medium || small), §6.3.
func (r Ratchet) DeriveKey() [32]byte {
	return hash("wnfs/ratchet/key", r.Large[:], r.Medium[:], r.Small[:])
}

// SnapshotKey computes the forward-secure snapshot key for this revision:
// SHA3-256(temporal_key). Knowing a snapshot key reveals nothing about
// temporal keys of earlier revisions.
func (r Ratchet) SnapshotKey() [32]byte {
	tk := r.DeriveKey()
	return sha3.Sum256(tk[:])
}
