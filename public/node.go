// Package public implements the plaintext counterpart to the private tree
// (spec.md §2: "exposes two parallel trees"; original_source's
// wnfs/src/public/{node,directory}.rs). Every node is stored as a plain
// dag-cbor block addressed by its own CID — no encryption, no forest, no
// ratchet. A write clones the touched node, stores it under its new CID,
// and that CID replaces the old one in every ancestor up to the root,
// exactly the private tree's fix-up but without the forest indirection
// (the "forest" here is just the block store).
package public

import (
	"context"
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
)

// Metadata mirrors private.Metadata: creation and modification times as
// Unix nanoseconds.
type Metadata struct {
	Ctime int64
	Mtime int64
}

// PublicFile is a leaf node: its content lives in a separate raw block,
// referenced by CID, so that identical content across files and revisions
// is stored once.
type PublicFile struct {
	Metadata   Metadata
	ContentCID cid.Cid
	Previous   []cid.Cid

	selfCID cid.Cid
}

// PublicDirEntry is one named child of a directory.
type PublicDirEntry struct {
	Name string
	CID  cid.Cid
}

// PublicDirectory is an interior node: an ordered set of named children,
// sorted by name for the same deterministic-encoding reason private
// directories sort their entries.
type PublicDirectory struct {
	Metadata Metadata
	Entries  []PublicDirEntry
	Previous []cid.Cid

	selfCID cid.Cid
}

// wire shapes: cid.Cid has no native cbor encoding in this codec, so the
// stored representations carry bytes instead.
type publicFileWire struct {
	Type       string    `cbor:"type"`
	Metadata   Metadata  `cbor:"metadata"`
	ContentCID []byte    `cbor:"contentCid"`
	Previous   [][]byte  `cbor:"previous"`
}

type publicDirEntryWire struct {
	Name string `cbor:"name"`
	CID  []byte `cbor:"cid"`
}

type publicDirWire struct {
	Type     string               `cbor:"type"`
	Metadata Metadata             `cbor:"metadata"`
	Entries  []publicDirEntryWire `cbor:"entries"`
	Previous [][]byte             `cbor:"previous"`
}

const (
	nodeTypeFile      = "PublicFile"
	nodeTypeDirectory = "PublicDirectory"
)

func cidsToBytes(cids []cid.Cid) [][]byte {
	out := make([][]byte, len(cids))
	for i, c := range cids {
		out[i] = c.Bytes()
	}
	return out
}

func bytesToCids(bs [][]byte) ([]cid.Cid, error) {
	out := make([]cid.Cid, len(bs))
	for i, b := range bs {
		_, c, err := cid.CidFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("public: decoding previous cid %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// NewFile mints a brand-new, empty, unstored file.
func NewFile(now int64) *PublicFile {
	return &PublicFile{Metadata: Metadata{Ctime: now, Mtime: now}}
}

// NewDirectory mints a brand-new, empty, unstored directory.
func NewDirectory(now int64) *PublicDirectory {
	return &PublicDirectory{Metadata: Metadata{Ctime: now, Mtime: now}}
}

// Lookup returns the CID bound to name, if present.
func (d *PublicDirectory) Lookup(name string) (cid.Cid, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e.CID, true
		}
	}
	return cid.Undef, false
}

// WithEntry returns a copy of d with name bound to childCID.
func WithEntry(d *PublicDirectory, name string, childCID cid.Cid, now int64) *PublicDirectory {
	next := &PublicDirectory{
		Metadata: Metadata{Ctime: d.Metadata.Ctime, Mtime: now},
		Entries:  append([]PublicDirEntry{}, d.Entries...),
	}
	if !d.selfCID.Equals(cid.Undef) {
		next.Previous = append([]cid.Cid{d.selfCID}, d.Previous...)
	}

	replaced := false
	for i, e := range next.Entries {
		if e.Name == name {
			next.Entries[i].CID = childCID
			replaced = true
			break
		}
	}
	if !replaced {
		next.Entries = append(next.Entries, PublicDirEntry{Name: name, CID: childCID})
	}
	sort.Slice(next.Entries, func(i, j int) bool { return next.Entries[i].Name < next.Entries[j].Name })
	return next
}

// WithoutEntry returns a copy of d with name removed, and whether it was
// present.
func WithoutEntry(d *PublicDirectory, name string, now int64) (*PublicDirectory, bool) {
	idx := -1
	for i, e := range d.Entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return d, false
	}
	next := &PublicDirectory{
		Metadata: Metadata{Ctime: d.Metadata.Ctime, Mtime: now},
		Entries:  make([]PublicDirEntry, 0, len(d.Entries)-1),
	}
	if !d.selfCID.Equals(cid.Undef) {
		next.Previous = append([]cid.Cid{d.selfCID}, d.Previous...)
	}
	for _, e := range d.Entries {
		if e.Name != name {
			next.Entries = append(next.Entries, e)
		}
	}
	return next, true
}

// SetContent replaces f's content and stores the new content block
// immediately, since public content is stored as a plain raw block with no
// key schedule to delay it behind.
func SetContent(ctx context.Context, bs blockstore.Blockstore, f *PublicFile, data []byte, now int64) (*PublicFile, error) {
	contentCID, err := bs.Put(ctx, data, blockstore.CodecRaw)
	if err != nil {
		return nil, fmt.Errorf("public: storing file content: %w", err)
	}
	next := &PublicFile{
		Metadata:   Metadata{Ctime: f.Metadata.Ctime, Mtime: now},
		ContentCID: contentCID,
	}
	if !f.selfCID.Equals(cid.Undef) {
		next.Previous = append([]cid.Cid{f.selfCID}, f.Previous...)
	}
	return next, nil
}

// StoreFile encodes and stores f's own (structured) block, returning its
// CID.
func StoreFile(ctx context.Context, bs blockstore.Blockstore, f *PublicFile) (cid.Cid, error) {
	wire := publicFileWire{
		Type:       nodeTypeFile,
		Metadata:   f.Metadata,
		ContentCID: f.ContentCID.Bytes(),
		Previous:   cidsToBytes(f.Previous),
	}
	data, err := codec.Marshal(wire)
	if err != nil {
		return cid.Undef, fmt.Errorf("public: encoding file: %w", err)
	}
	selfCID, err := bs.Put(ctx, data, blockstore.CodecDagCBOR)
	if err != nil {
		return cid.Undef, fmt.Errorf("public: storing file: %w", err)
	}
	f.selfCID = selfCID
	return selfCID, nil
}

// StoreDirectory encodes and stores d's own block, returning its CID.
func StoreDirectory(ctx context.Context, bs blockstore.Blockstore, d *PublicDirectory) (cid.Cid, error) {
	entries := make([]publicDirEntryWire, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = publicDirEntryWire{Name: e.Name, CID: e.CID.Bytes()}
	}
	wire := publicDirWire{
		Type:     nodeTypeDirectory,
		Metadata: d.Metadata,
		Entries:  entries,
		Previous: cidsToBytes(d.Previous),
	}
	data, err := codec.Marshal(wire)
	if err != nil {
		return cid.Undef, fmt.Errorf("public: encoding directory: %w", err)
	}
	selfCID, err := bs.Put(ctx, data, blockstore.CodecDagCBOR)
	if err != nil {
		return cid.Undef, fmt.Errorf("public: storing directory: %w", err)
	}
	d.selfCID = selfCID
	return selfCID, nil
}

// ReadContent fetches and returns f's plaintext content.
func ReadContent(ctx context.Context, bs blockstore.Blockstore, f *PublicFile) ([]byte, error) {
	data, err := bs.Get(ctx, f.ContentCID)
	if err != nil {
		return nil, fmt.Errorf("public: fetching content %s: %w", f.ContentCID, err)
	}
	return data, nil
}

// LoadFile fetches and decodes the file stored at id.
func LoadFile(ctx context.Context, bs blockstore.Blockstore, id cid.Cid) (*PublicFile, error) {
	data, err := bs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("public: fetching file %s: %w", id, err)
	}
	var wire publicFileWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("public: decoding file %s: %w", id, err)
	}
	if wire.Type != nodeTypeFile {
		return nil, fmt.Errorf("public: %s: %w", id, ErrUnexpectedNodeType)
	}
	_, contentCID, err := cid.CidFromBytes(wire.ContentCID)
	if err != nil {
		return nil, fmt.Errorf("public: decoding content cid: %w", err)
	}
	previous, err := bytesToCids(wire.Previous)
	if err != nil {
		return nil, err
	}
	return &PublicFile{Metadata: wire.Metadata, ContentCID: contentCID, Previous: previous, selfCID: id}, nil
}

// LoadDirectory fetches and decodes the directory stored at id.
func LoadDirectory(ctx context.Context, bs blockstore.Blockstore, id cid.Cid) (*PublicDirectory, error) {
	data, err := bs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("public: fetching directory %s: %w", id, err)
	}
	var wire publicDirWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("public: decoding directory %s: %w", id, err)
	}
	if wire.Type != nodeTypeDirectory {
		return nil, fmt.Errorf("public: %s: %w", id, ErrUnexpectedNodeType)
	}
	entries := make([]PublicDirEntry, len(wire.Entries))
	for i, e := range wire.Entries {
		_, c, err := cid.CidFromBytes(e.CID)
		if err != nil {
			return nil, fmt.Errorf("public: decoding entry %q cid: %w", e.Name, err)
		}
		entries[i] = PublicDirEntry{Name: e.Name, CID: c}
	}
	previous, err := bytesToCids(wire.Previous)
	if err != nil {
		return nil, err
	}
	return &PublicDirectory{Metadata: wire.Metadata, Entries: entries, Previous: previous, selfCID: id}, nil
}

// NodeKind distinguishes which variant a CID in a directory's entries
// resolves to, without requiring a caller to know in advance.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDirectory
)

// Probe reports whether id resolves to a file or a directory, by attempting
// to decode its type tag.
func Probe(ctx context.Context, bs blockstore.Blockstore, id cid.Cid) (NodeKind, error) {
	data, err := bs.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("public: fetching %s: %w", id, err)
	}
	var probe struct {
		Type string `cbor:"type"`
	}
	if err := codec.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("public: probing %s: %w", id, err)
	}
	switch probe.Type {
	case nodeTypeFile:
		return KindFile, nil
	case nodeTypeDirectory:
		return KindDirectory, nil
	default:
		return 0, fmt.Errorf("public: %s: %w", id, ErrUnexpectedNodeType)
	}
}
