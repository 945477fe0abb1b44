package private

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
)

// InlineContentMax is the largest plaintext a file will store inline in its
// content block rather than as external shards. The spec leaves this
// threshold to the implementer; chosen generously enough that small files
// (the common case for metadata-heavy trees) never pay the shard-label
// derivation cost.
const InlineContentMax = 16 * 1024

// maxShardPlaintext is the largest plaintext a single shard may hold so
// that, once AEAD-sealed, it still satisfies MAX_BLOCK (spec §4.6).
const maxShardPlaintext = blockstore.MaxBlockSize - codec.NonceSize - codec.TagSize

func encryptCID(key [32]byte, id cid.Cid) ([]byte, error) {
	return codec.Encrypt(key, id.Bytes())
}

func decryptCID(key [32]byte, block []byte) (cid.Cid, error) {
	plaintext, err := codec.Decrypt(key, block)
	if err != nil {
		return cid.Undef, err
	}
	_, id, err := cid.CidFromBytes(plaintext)
	if err != nil {
		return cid.Undef, fmt.Errorf("private: decoding previous-link cid: %w", err)
	}
	return id, nil
}

// fileContentWire is the tagged wire shape of a file's content field:
// exactly one of Inline/External is present (spec §6.2).
type fileContentWire struct {
	Inline   []byte           `cbor:"inline,omitempty"`
	External *externalContent `cbor:"external,omitempty"`
}

type externalContent struct {
	SnapshotKey      [32]byte `cbor:"snapshotKey"`
	BlockCount       uint64   `cbor:"blockCount"`
	BlockContentSize uint64   `cbor:"blockContentSize"`
	// ShardSizes holds each shard's plaintext length when content was split
	// by ShardStrategyContentDefined instead of BlockContentSize-uniform
	// shards. Empty for the fixed-size strategy.
	ShardSizes []uint64 `cbor:"shardSizes,omitempty"`
}

// fileWire is the content block's plaintext shape, encrypted under the
// revision's snapshot key: { type, version, header_cid, previous, metadata,
// content } per spec §6.2.
type fileWire struct {
	Type      string          `cbor:"type"`
	Version   string          `cbor:"version"`
	HeaderCID []byte          `cbor:"headerCid"`
	Previous  []PreviousLink  `cbor:"previous"`
	Metadata  Metadata        `cbor:"metadata"`
	Content   fileContentWire `cbor:"content"`
}

// dirWire is the directory analogue of fileWire.
type dirWire struct {
	Type      string         `cbor:"type"`
	Version   string         `cbor:"version"`
	HeaderCID []byte         `cbor:"headerCid"`
	Previous  []PreviousLink `cbor:"previous"`
	Metadata  Metadata       `cbor:"metadata"`
	Entries   []dirEntryWire `cbor:"entries"`
}

type dirEntryWire struct {
	Name              string   `cbor:"name"`
	RevisionLabelHash [32]byte `cbor:"revisionLabelHash"`
	TemporalKey       [32]byte `cbor:"temporalKey"`
	SnapshotKey       [32]byte `cbor:"snapshotKey"`
	ContentCID        []byte   `cbor:"contentCid"`
}

func privateRefToWire(name string, ref PrivateRef) dirEntryWire {
	return dirEntryWire{
		Name:              name,
		RevisionLabelHash: ref.RevisionLabelHash,
		TemporalKey:       ref.TemporalKey,
		SnapshotKey:       ref.SnapshotKey,
		ContentCID:        ref.ContentCID.Bytes(),
	}
}

func wireToPrivateRef(w dirEntryWire) (PrivateRef, error) {
	_, contentCID, err := cid.CidFromBytes(w.ContentCID)
	if err != nil {
		return PrivateRef{}, fmt.Errorf("private: decoding entry %q content cid: %w", w.Name, err)
	}
	return PrivateRef{
		RevisionLabelHash: w.RevisionLabelHash,
		TemporalKey:       w.TemporalKey,
		SnapshotKey:       w.SnapshotKey,
		ContentCID:        contentCID,
	}, nil
}

const (
	nodeTypeFile      = "PrivateFile"
	nodeTypeDirectory = "PrivateDirectory"
	nodeVersion       = "0.2.0"
)

var errWrongType = fmt.Errorf("private: %w", ErrUnexpectedNodeType)
