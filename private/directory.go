package private

import (
	"context"
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
)

// DirEntry is one named child of a directory: a path segment and the
// capability to fetch and decrypt it. entries are kept sorted by Name so
// that two directories with the same membership encode identically,
// regardless of insertion order (spec's entries is an "ordered mapping";
// sorted-by-name is the simplest total order that doesn't depend on
// history).
type DirEntry struct {
	Name string
	Ref  PrivateRef
}

// PrivateDirectory is an interior node: an ordered set of named children
// (spec §3.1).
type PrivateDirectory struct {
	Header      PrivateNodeHeader
	PersistedAs *cid.Cid
	Metadata    Metadata
	Previous    []PreviousLink
	Entries     []DirEntry
}

// NewDirectory mints a brand-new, empty, unpersisted directory under
// parentName.
func NewDirectory(setup nameaccumulator.Setup, parentName *nameaccumulator.Name, now int64) (*PrivateDirectory, error) {
	h, err := newHeader(setup, parentName)
	if err != nil {
		return nil, err
	}
	return &PrivateDirectory{
		Header:   h,
		Metadata: Metadata{Ctime: now, Mtime: now},
	}, nil
}

// Lookup returns the entry named name, if present.
func (d *PrivateDirectory) Lookup(name string) (PrivateRef, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e.Ref, true
		}
	}
	return PrivateRef{}, false
}

// WithEntry returns a copy of d's entries with name bound to ref, applying
// the copy-on-write protocol first.
func WithEntry(d *PrivateDirectory, name string, ref PrivateRef, now int64) *PrivateDirectory {
	next := prepareNextRevision(d).(*PrivateDirectory)
	next.Metadata.Mtime = now

	replaced := false
	for i, e := range next.Entries {
		if e.Name == name {
			next.Entries[i].Ref = ref
			replaced = true
			break
		}
	}
	if !replaced {
		next.Entries = append(next.Entries, DirEntry{Name: name, Ref: ref})
	}
	sort.Slice(next.Entries, func(i, j int) bool { return next.Entries[i].Name < next.Entries[j].Name })
	return next
}

// WithoutEntry returns a copy of d with name removed, and whether it was
// present.
func WithoutEntry(d *PrivateDirectory, name string, now int64) (*PrivateDirectory, bool) {
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
	next := prepareNextRevision(d).(*PrivateDirectory)
	next.Metadata.Mtime = now
	out := make([]DirEntry, 0, len(next.Entries)-1)
	for _, e := range next.Entries {
		if e.Name != name {
			out = append(out, e)
		}
	}
	next.Entries = out
	return next, true
}

// storeDirectory persists d's header and content blocks into bs, depositing
// both CIDs into the forest at d's current label.
func storeDirectory(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, d *PrivateDirectory) (*forest.Forest, cid.Cid, error) {
	entries := make([]dirEntryWire, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = privateRefToWire(e.Name, e.Ref)
	}

	headerCiphertext, err := encryptHeader(setup, d.Header)
	if err != nil {
		return nil, cid.Undef, err
	}
	headerCID, err := bs.Put(ctx, headerCiphertext, blockstore.CodecRaw)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: storing directory header: %w", err)
	}

	wire := dirWire{
		Type:      nodeTypeDirectory,
		Version:   nodeVersion,
		HeaderCID: headerCID.Bytes(),
		Previous:  d.Previous,
		Metadata:  d.Metadata,
		Entries:   entries,
	}
	plaintext, err := codec.Marshal(wire)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: encoding directory content: %w", err)
	}
	snapshotKey := d.Header.Ratchet.SnapshotKey()
	ciphertext, err := codec.Encrypt(snapshotKey, plaintext)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: encrypting directory content: %w", err)
	}
	contentCID, err := bs.Put(ctx, ciphertext, blockstore.CodecRaw)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("private: storing directory content: %w", err)
	}

	label := d.Header.Label(setup)
	fo = fo.PutEncrypted(label, []cid.Cid{headerCID, contentCID})

	d.PersistedAs = &contentCID
	return fo, contentCID, nil
}

// loadDirectory decrypts and decodes a directory's content block. The
// caller is responsible for attaching the header separately (see
// attachHeader), mirroring loadFile.
func loadDirectory(ctx context.Context, bs blockstore.Blockstore, ref PrivateRef) (*PrivateDirectory, error) {
	ciphertext, err := bs.Get(ctx, ref.ContentCID)
	if err != nil {
		return nil, fmt.Errorf("private: fetching directory content %s: %w", ref.ContentCID, err)
	}
	plaintext, err := codec.Decrypt(ref.SnapshotKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("private: decrypting directory content: %w", err)
	}
	var wire dirWire
	if err := codec.Unmarshal(plaintext, &wire); err != nil {
		return nil, fmt.Errorf("private: decoding directory content: %w", err)
	}
	if wire.Type != nodeTypeDirectory {
		return nil, errWrongType
	}
	if wire.Version != nodeVersion {
		return nil, fmt.Errorf("private: %w: %s", ErrUnexpectedVersion, wire.Version)
	}

	entries := make([]DirEntry, len(wire.Entries))
	for i, w := range wire.Entries {
		ref, err := wireToPrivateRef(w)
		if err != nil {
			return nil, err
		}
		entries[i] = DirEntry{Name: w.Name, Ref: ref}
	}

	contentCID := ref.ContentCID
	return &PrivateDirectory{
		PersistedAs: &contentCID,
		Metadata:    wire.Metadata,
		Previous:    wire.Previous,
		Entries:     entries,
	}, nil
}

func (d *PrivateDirectory) attachHeader(h PrivateNodeHeader) { d.Header = h }
