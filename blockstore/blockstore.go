// Package blockstore defines the content-addressed block store capability
// that the rest of wnfs-go treats as an external collaborator: a grow-only
// mapping from CID to bytes, exactly the shape cellstate-treedb's bolt
// buckets provide, generalized to the IPFS CID/multihash conventions the
// wider WNFS ecosystem uses on the wire.
package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	mh "github.com/multiformats/go-multihash"
)

var log = logging.Logger("wnfs/blockstore")

// MaxBlockSize is the maximum size, in bytes, of any block this store will
// accept. spec §3.1, §6.1.
const MaxBlockSize = 262144

// Codec tags distinguish raw ciphertext/shard blocks from structured
// dag-cbor blocks, per spec §6.1.
const (
	CodecRaw     = cid.Raw
	CodecDagCBOR = cid.DagCBOR
)

var (
	// ErrBlockNotFound is returned when a CID has no corresponding block.
	ErrBlockNotFound = errors.New("blockstore: block not found")
	// ErrBlockTooLarge is returned when a put exceeds MaxBlockSize.
	ErrBlockTooLarge = errors.New("blockstore: block exceeds maximum size")
)

// Blockstore is the capability the private/public trees are built on:
// content-addressed, grow-only storage. Implementations must make Put
// idempotent on content (same bytes always yield the same CID and a
// second Put of identical bytes is a no-op).
type Blockstore interface {
	// Put stores data under the given codec tag and returns its CID.
	Put(ctx context.Context, data []byte, codec uint64) (cid.Cid, error)
	// Get fetches the bytes stored at id, or ErrBlockNotFound.
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	// Has reports whether a block is present without fetching it.
	Has(ctx context.Context, id cid.Cid) (bool, error)
}

// CIDFromBytes computes the CID that Put would assign to data, without
// storing it. Used by callers that need to predict labels/links before a
// write lands (e.g. computing a file's previous-link ciphertext target).
func CIDFromBytes(data []byte, codec uint64) (cid.Cid, error) {
	if len(data) > MaxBlockSize {
		return cid.Undef, fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, len(data))
	}
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hashing block: %w", err)
	}
	return cid.NewCidV1(codec, hash), nil
}
