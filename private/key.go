package private

import (
	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

// PrivateRef is a capability: everything needed to fetch and decrypt one
// specific revision of one node, and nothing more. It deliberately omits
// the node's Name/accumulator — a holder can locate and read the revision
// without being able to derive any other label in the tree (spec §3.1).
type PrivateRef struct {
	RevisionLabelHash [32]byte
	TemporalKey       [32]byte
	SnapshotKey       [32]byte
	ContentCID        cid.Cid
}

// privateRefFromHeader builds the capability for a header whose content has
// just been (or previously was) stored at contentCID.
func privateRefFromHeader(setup nameaccumulator.Setup, h PrivateNodeHeader, contentCID cid.Cid) PrivateRef {
	return PrivateRef{
		RevisionLabelHash: h.RevisionLabelHash(setup),
		TemporalKey:       h.Ratchet.DeriveKey(),
		SnapshotKey:       h.Ratchet.SnapshotKey(),
		ContentCID:        contentCID,
	}
}
