package private

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/restic/chunker"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
)

// privateChunkerPol is a fixed splitting polynomial for the content-defined
// shard planner below; any non-degenerate irreducible polynomial works, and
// a fixed one keeps planning deterministic across runs, matching how
// cellstate-treedb's ChunkBuf pins a single chunker.Pol for a file's life.
const privateChunkerPol = chunker.Pol(0x3DA3358B4DC173)

// PrivateFile is a leaf node holding either inline or sharded encrypted
// content (spec §3.1).
type PrivateFile struct {
	Header      PrivateNodeHeader
	PersistedAs *cid.Cid
	Metadata    Metadata
	Previous    []PreviousLink
	Content     fileContentWire
}

// NewFile mints a brand-new, empty, unpersisted file under parentName.
func NewFile(setup nameaccumulator.Setup, parentName *nameaccumulator.Name, now int64) (*PrivateFile, error) {
	h, err := newHeader(setup, parentName)
	if err != nil {
		return nil, err
	}
	return &PrivateFile{
		Header:   h,
		Metadata: Metadata{Ctime: now, Mtime: now},
		Content:  fileContentWire{Inline: []byte{}},
	}, nil
}

// ShardStrategy selects how SetContent splits external file content into
// shards.
type ShardStrategy int

const (
	// ShardStrategyFixed splits content into maxShardPlaintext-sized shards,
	// giving the exact ceil(len(data)/maxShardPlaintext) block count spec
	// §3.2 invariant 4 requires. The zero value, and config.Default()'s
	// choice.
	ShardStrategyFixed ShardStrategy = iota
	// ShardStrategyContentDefined plans shard boundaries with
	// PlanContentDefinedShards instead, trading that exact block-count
	// invariant for boundaries that don't all shift on an append.
	ShardStrategyContentDefined
)

// PlanContentDefinedShards reports the plaintext length of each shard a
// content-defined chunker would carve data into, each capped at
// maxShardPlaintext. This is an alternate ingestion strategy to the
// fixed-size shards SetContent uses by default: it gives non-pathological
// shard boundaries under append-heavy workloads (a later append only
// rewrites the shards whose boundaries actually shifted) at the cost of the
// exact ceil(len/blockContentSize) accounting the fixed-size path
// guarantees. Selected via ShardStrategyContentDefined.
func PlanContentDefinedShards(data []byte) ([]int, error) {
	c := chunker.NewWithBoundaries(bytes.NewReader(data), privateChunkerPol, 1024, maxShardPlaintext)
	var sizes []int
	buf := make([]byte, c.MaxSize)
	for {
		chunk, err := c.Next(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("private: planning content-defined shards: %w", err)
		}
		sizes = append(sizes, int(chunk.Length))
	}
	return sizes, nil
}

// SetContent replaces f's content with data, applying the copy-on-write
// protocol first. Above InlineContentMax, content is split into external
// shards per strategy: ShardStrategyFixed guarantees
// blockCount = ceil(len(data)/maxShardPlaintext) exactly (spec §3.2
// invariant 4, §8.1); ShardStrategyContentDefined plans shard boundaries
// with PlanContentDefinedShards instead and falls back to fixed-size
// shards if planning fails.
func SetContent(setup nameaccumulator.Setup, f *PrivateFile, data []byte, now int64, strategy ShardStrategy) *PrivateFile {
	next := prepareNextRevision(f).(*PrivateFile)
	next.Metadata.Mtime = now

	if len(data) <= InlineContentMax {
		next.Content = fileContentWire{Inline: append([]byte{}, data...)}
		return next
	}

	snapshotKey := next.Header.Ratchet.SnapshotKey()

	if strategy == ShardStrategyContentDefined {
		if sizes, err := PlanContentDefinedShards(data); err == nil && len(sizes) > 0 {
			shardSizes := make([]uint64, len(sizes))
			for i, s := range sizes {
				shardSizes[i] = uint64(s)
			}
			next.Content = fileContentWire{External: &externalContent{
				SnapshotKey: snapshotKey,
				BlockCount:  uint64(len(sizes)),
				ShardSizes:  shardSizes,
			}}
			return next
		}
	}

	blockCount := (len(data) + maxShardPlaintext - 1) / maxShardPlaintext
	next.Content = fileContentWire{External: &externalContent{
		SnapshotKey:      snapshotKey,
		BlockCount:       uint64(blockCount),
		BlockContentSize: uint64(maxShardPlaintext),
	}}
	return next
}

// storeFile persists f's header and content blocks (and, for external
// content, every shard) into bs, depositing all of their CIDs into f's
// forest at the appropriate labels, and returns the new forest plus f's
// content CID.
func storeFile(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, f *PrivateFile, data []byte) (*forest.Forest, cid.Cid, error) {
	headerCiphertext, err := encryptHeader(setup, f.Header)
	if err != nil {
		return nil, cid.Undef, err
	}
	headerCID, err := bs.Put(ctx, headerCiphertext, blockstore.CodecRaw)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: storing file header: %w", err)
	}

	wire := fileWire{
		Type:      nodeTypeFile,
		Version:   nodeVersion,
		HeaderCID: headerCID.Bytes(),
		Previous:  f.Previous,
		Metadata:  f.Metadata,
		Content:   f.Content,
	}
	plaintext, err := codec.Marshal(wire)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: encoding file content: %w", err)
	}
	snapshotKey := f.Header.Ratchet.SnapshotKey()
	ciphertext, err := codec.Encrypt(snapshotKey, plaintext)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: encrypting file content: %w", err)
	}
	contentCID, err := bs.Put(ctx, ciphertext, blockstore.CodecRaw)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: storing file content: %w", err)
	}

	label := f.Header.Label(setup)
	fo = fo.PutEncrypted(label, []cid.Cid{headerCID, contentCID})

	if f.Content.External != nil {
		fo, err = storeShards(ctx, bs, fo, setup, f.Header.Name, *f.Content.External, data)
		if err != nil {
			return nil, cid.Undef, err
		}
	}

	f.PersistedAs = &contentCID
	return fo, contentCID, nil
}

func storeShards(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, name nameaccumulator.Name, ext externalContent, data []byte) (*forest.Forest, error) {
	revName, err := revisionName(setup, name, ext.SnapshotKey)
	if err != nil {
		return nil, err
	}

	offset := 0
	for i := uint64(0); i < ext.BlockCount; i++ {
		size := int(ext.BlockContentSize)
		if len(ext.ShardSizes) > 0 {
			size = int(ext.ShardSizes[i])
		}
		start := offset
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		offset = end
		ciphertext, err := codec.Encrypt(ext.SnapshotKey, data[start:end])
		if err != nil {
			return nil, fmt.Errorf("private: encrypting shard %d: %w", i, err)
		}
		shardCID, err := bs.Put(ctx, ciphertext, blockstore.CodecRaw)
		if err != nil {
			return nil, fmt.Errorf("private: storing shard %d: %w", i, err)
		}
		label, err := shardLabel(setup, revName, ext.SnapshotKey, i)
		if err != nil {
			return nil, err
		}
		fo = fo.PutEncrypted(label, []cid.Cid{shardCID})
	}
	return fo, nil
}

// ReadContent returns f's plaintext, fetching and decrypting shards from bs
// via fo as needed.
func ReadContent(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, f *PrivateFile) ([]byte, error) {
	if f.Content.External == nil {
		return append([]byte{}, f.Content.Inline...), nil
	}
	ext := f.Content.External
	revName, err := revisionName(setup, f.Header.Name, ext.SnapshotKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, int(ext.BlockCount)*int(ext.BlockContentSize))
	for i := uint64(0); i < ext.BlockCount; i++ {
		label, err := shardLabel(setup, revName, ext.SnapshotKey, i)
		if err != nil {
			return nil, err
		}
		set, ok := fo.GetEncrypted(label.Hash())
		if !ok || len(set) == 0 {
			return nil, fmt.Errorf("private: shard %d: %w", i, ErrFileShardNotFound)
		}
		ciphertext, err := bs.Get(ctx, set[0])
		if err != nil {
			return nil, fmt.Errorf("private: fetching shard %d: %w", i, err)
		}
		plaintext, err := codec.Decrypt(ext.SnapshotKey, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("private: decrypting shard %d: %w", i, err)
		}
		out = append(out, plaintext...)
	}
	return out, nil
}

// loadFile decrypts and decodes a file's header and content blocks given a
// PrivateRef.
func loadFile(ctx context.Context, bs blockstore.Blockstore, ref PrivateRef) (*PrivateFile, error) {
	ciphertext, err := bs.Get(ctx, ref.ContentCID)
	if err != nil {
		return nil, fmt.Errorf("private: fetching file content %s: %w", ref.ContentCID, err)
	}
	plaintext, err := codec.Decrypt(ref.SnapshotKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("private: decrypting file content: %w", err)
	}
	var wire fileWire
	if err := codec.Unmarshal(plaintext, &wire); err != nil {
		return nil, fmt.Errorf("private: decoding file content: %w", err)
	}
	if wire.Type != nodeTypeFile {
		return nil, errWrongType
	}
	if wire.Version != nodeVersion {
		return nil, fmt.Errorf("private: %w: %s", ErrUnexpectedVersion, wire.Version)
	}

	// wire.HeaderCID names the header block but loadFile doesn't fetch it;
	// callers that already have the header (LoadNode, loadRevisionAt) attach
	// it separately via attachHeader. loadFile alone only recovers content
	// fields.
	contentCID := ref.ContentCID
	f := &PrivateFile{
		PersistedAs: &contentCID,
		Metadata:    wire.Metadata,
		Previous:    wire.Previous,
		Content:     wire.Content,
	}
	return f, nil
}

func (f *PrivateFile) attachHeader(h PrivateNodeHeader) { f.Header = h }
