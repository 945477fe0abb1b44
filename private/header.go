package private

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
	"github.com/fission-suite/wnfs-go/ratchet"
)

// PrivateNodeHeader is the half of a node that never changes identity
// across revisions: its name (an accumulator extension of its parent's
// name by its own inumber) and its ratchet, which does change on every
// revision. Invariant: name = parent.name + inumber (spec §3.1).
type PrivateNodeHeader struct {
	Name    nameaccumulator.Name
	INumber nameaccumulator.Segment
	Ratchet ratchet.Ratchet
}

// newHeader mints a brand-new node header under parentName (nil for a root)
// with a fresh random inumber and ratchet seed.
func newHeader(setup nameaccumulator.Setup, parentName *nameaccumulator.Name) (PrivateNodeHeader, error) {
	inumberSeg, err := nameaccumulator.RandomSegment(rand.Reader)
	if err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: minting inumber: %w", err)
	}

	var seed [32]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: sampling ratchet seed: %w", err)
	}

	var base nameaccumulator.Name
	if parentName == nil {
		base = nameaccumulator.NameFromAccumulator(nameaccumulator.Empty(setup))
	} else {
		base = *parentName
	}

	return PrivateNodeHeader{
		Name:    base.Extend(setup, inumberSeg),
		INumber: inumberSeg,
		Ratchet: ratchet.Zero(seed),
	}, nil
}

// NamePtr returns a pointer to this header's name, for passing to
// newHeader when minting a child node.
func (h *PrivateNodeHeader) NamePtr() *nameaccumulator.Name { return &h.Name }

// Label returns this header's current forest label: its name accumulator.
func (h *PrivateNodeHeader) Label(setup nameaccumulator.Setup) forest.Label {
	return forest.Label{Accumulator: h.Name.AsAccumulator(setup)}
}

// RevisionLabelHash is SHA3-256(as_bytes(name)), the forest's HAMT key hash
// for this revision (spec §6.3).
func (h *PrivateNodeHeader) RevisionLabelHash(setup nameaccumulator.Setup) [32]byte {
	return h.Label(setup).Hash()
}

// revisionName computes A + segment_from_digest(H(snapshot_key)), the base
// name that every shard of this revision's external file content extends
// (spec §6.3).
func revisionName(setup nameaccumulator.Setup, name nameaccumulator.Name, snapshotKey [32]byte) (nameaccumulator.Name, error) {
	digest := sha3.Sum256(snapshotKey[:])
	seg, err := nameaccumulator.SegmentFromDigest(digest)
	if err != nil {
		return nameaccumulator.Name{}, fmt.Errorf("private: deriving revision name: %w", err)
	}
	return name.Extend(setup, seg), nil
}

// shardLabel computes revision_name + segment_from_digest(H(snapshot_key ||
// index_le_8)) for shard i of a revision's external content (spec §6.3).
func shardLabel(setup nameaccumulator.Setup, revName nameaccumulator.Name, snapshotKey [32]byte, index uint64) (forest.Label, error) {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, 40)
	buf = append(buf, snapshotKey[:]...)
	buf = append(buf, idx[:]...)
	digest := sha3.Sum256(buf)
	seg, err := nameaccumulator.SegmentFromDigest(digest)
	if err != nil {
		return forest.Label{}, fmt.Errorf("private: deriving shard label %d: %w", index, err)
	}
	extended := revName.Extend(setup, seg)
	return forest.Label{Accumulator: extended.AsAccumulator(setup)}, nil
}

// headerBlock is the wire encoding of a header block's plaintext, prior to
// AEAD encryption under the temporal key (spec §4.5).
type headerBlock struct {
	Accumulator []byte      `cbor:"accumulator"`
	INumber     []byte      `cbor:"inumber"`
	Ratchet     ratchetWire `cbor:"ratchet"`
}

type ratchetWire struct {
	Large         [32]byte `cbor:"large"`
	Medium        [32]byte `cbor:"medium"`
	MediumCounter uint8    `cbor:"mediumCounter"`
	Small         [32]byte `cbor:"small"`
	SmallCounter  uint8    `cbor:"smallCounter"`
}

func toRatchetWire(r ratchet.Ratchet) ratchetWire {
	return ratchetWire{
		Large:         r.Large,
		Medium:        r.Medium,
		MediumCounter: r.MediumCounter,
		Small:         r.Small,
		SmallCounter:  r.SmallCounter,
	}
}

func fromRatchetWire(w ratchetWire) ratchet.Ratchet {
	return ratchet.Ratchet{
		Large:         w.Large,
		Medium:        w.Medium,
		MediumCounter: w.MediumCounter,
		Small:         w.Small,
		SmallCounter:  w.SmallCounter,
	}
}

// encryptHeader encrypts h's canonical encoding under its own temporal key.
func encryptHeader(setup nameaccumulator.Setup, h PrivateNodeHeader) ([]byte, error) {
	wire := headerBlock{
		Accumulator: h.Name.AsAccumulator(setup).Bytes(),
		INumber:     h.INumber.Bytes(),
		Ratchet:     toRatchetWire(h.Ratchet),
	}
	plaintext, err := codec.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("private: encoding header: %w", err)
	}
	return codec.Encrypt(h.Ratchet.DeriveKey(), plaintext)
}

// decryptHeader decrypts and decodes a header block under temporalKey. The
// returned header's Name is rebuilt directly from the decoded accumulator
// (not by re-extending a parent), since a loaded header carries no live
// parent reference — its identity is fully captured by the folded
// accumulator bytes.
func decryptHeader(temporalKey [32]byte, block []byte) (PrivateNodeHeader, error) {
	plaintext, err := codec.Decrypt(temporalKey, block)
	if err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: decrypting header: %w", err)
	}
	var wire headerBlock
	if err := codec.Unmarshal(plaintext, &wire); err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: decoding header: %w", err)
	}
	acc := nameaccumulator.FromBytes(wire.Accumulator)
	seg, err := nameaccumulator.SegmentFromBytes(wire.INumber)
	if err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: decoding inumber: %w", err)
	}
	return PrivateNodeHeader{
		Name:    nameaccumulator.NameFromAccumulator(acc),
		INumber: seg,
		Ratchet: fromRatchetWire(wire.Ratchet),
	}, nil
}
