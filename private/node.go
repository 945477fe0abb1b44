package private

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
	"github.com/fission-suite/wnfs-go/ratchet"
)

// Metadata carries the small amount of descriptive state every private node
// tracks alongside its content: creation and modification times, recorded
// as Unix nanoseconds so the canonical CBOR encoding is a plain integer
// rather than a time.Time's ambiguous wire shape.
type Metadata struct {
	Ctime int64 `cbor:"ctime"`
	Mtime int64 `cbor:"mtime"`
}

// PreviousLink records one prior revision of a node: how many ratchet
// increments back it sits, and its CID encrypted under that prior
// revision's temporal key (spec §3.2 invariant 2).
type PreviousLink struct {
	Distance  uint64 `cbor:"distance"`
	Encrypted []byte `cbor:"encrypted"`
}

// PrivateNode is a tagged union over the two node shapes the private tree
// holds: exactly one of File or Dir is non-nil (spec design note: "dynamic
// dispatch between file and directory should be a tagged variant").
type PrivateNode struct {
	File *PrivateFile
	Dir  *PrivateDirectory
}

func fileNode(f *PrivateFile) PrivateNode { return PrivateNode{File: f} }
func dirNode(d *PrivateDirectory) PrivateNode { return PrivateNode{Dir: d} }

// IsFile reports whether this node is a file.
func (n PrivateNode) IsFile() bool { return n.File != nil }

// IsDir reports whether this node is a directory.
func (n PrivateNode) IsDir() bool { return n.Dir != nil }

// Header returns the node's header, regardless of which variant it is.
func (n PrivateNode) Header() *PrivateNodeHeader {
	if n.File != nil {
		return &n.File.Header
	}
	return &n.Dir.Header
}

// Metadata returns the node's metadata, regardless of which variant it is.
func (n PrivateNode) Metadata() Metadata {
	if n.File != nil {
		return n.File.Metadata
	}
	return n.Dir.Metadata
}

// AsPrivateRef builds the capability for this node's current, already
// stored revision. Returns ErrMissingHeader's sibling condition
// (PersistedAs == nil) as a plain false so callers can distinguish
// "not yet stored" from a real error.
func (n PrivateNode) AsPrivateRef(setup nameaccumulator.Setup) (PrivateRef, bool) {
	var persistedAs *cid.Cid
	if n.File != nil {
		persistedAs = n.File.PersistedAs
	} else {
		persistedAs = n.Dir.PersistedAs
	}
	if persistedAs == nil {
		return PrivateRef{}, false
	}
	return privateRefFromHeader(setup, *n.Header(), *persistedAs), true
}

// mutableNode abstracts over *PrivateFile / *PrivateDirectory for the
// copy-on-write protocol shared by both (spec §4.5).
type mutableNode interface {
	header() *PrivateNodeHeader
	persistedAs() *cid.Cid
	setPersistedAs(*cid.Cid)
	previous() []PreviousLink
	setPrevious([]PreviousLink)
	clone() mutableNode
}

func (f *PrivateFile) header() *PrivateNodeHeader   { return &f.Header }
func (f *PrivateFile) persistedAs() *cid.Cid        { return f.PersistedAs }
func (f *PrivateFile) setPersistedAs(c *cid.Cid)    { f.PersistedAs = c }
func (f *PrivateFile) previous() []PreviousLink     { return f.Previous }
func (f *PrivateFile) setPrevious(p []PreviousLink) { f.Previous = p }
func (f *PrivateFile) clone() mutableNode {
	c := *f
	c.Previous = append([]PreviousLink{}, f.Previous...)
	return &c
}

func (d *PrivateDirectory) header() *PrivateNodeHeader   { return &d.Header }
func (d *PrivateDirectory) persistedAs() *cid.Cid        { return d.PersistedAs }
func (d *PrivateDirectory) setPersistedAs(c *cid.Cid)    { d.PersistedAs = c }
func (d *PrivateDirectory) previous() []PreviousLink     { return d.Previous }
func (d *PrivateDirectory) setPrevious(p []PreviousLink) { d.Previous = p }
func (d *PrivateDirectory) clone() mutableNode {
	c := *d
	c.Previous = append([]PreviousLink{}, d.Previous...)
	c.Entries = append([]DirEntry{}, d.Entries...)
	return &c
}

// prepareNextRevision implements the copy-on-write revision protocol (spec
// §4.5): if the node was never stored, it is still "dirty" and mutations
// apply in place; otherwise clone, push a previous-link encrypted under the
// current temporal key, clear persisted_as, and advance the ratchet. Safe
// to call repeatedly within one logical operation — the second call onward
// is a no-op because persistedAs is already nil.
func prepareNextRevision(n mutableNode) mutableNode {
	if n.persistedAs() == nil {
		return n
	}

	oldCID := *n.persistedAs()
	oldTemporalKey := n.header().Ratchet.DeriveKey()
	encrypted, err := encryptCID(oldTemporalKey, oldCID)
	if err != nil {
		// CID bytes are always a valid AEAD plaintext; Encrypt only fails on
		// a broken RNG, which this codebase treats as fatal elsewhere too.
		panic("private: encrypting previous-link cid: " + err.Error())
	}

	next := n.clone()
	next.setPersistedAs(nil)
	next.setPrevious(append([]PreviousLink{{Distance: 1, Encrypted: encrypted}}, n.previous()...))
	h := next.header()
	h.Ratchet = h.Ratchet.Inc()
	return next
}

// contentProbe decodes just enough of a content block's plaintext to
// dispatch to the right loader and fetch its header block directly:
// the type tag and the header CID stamped in at store time (spec §6.2).
type contentProbe struct {
	Type      string `cbor:"type"`
	HeaderCID []byte `cbor:"headerCid"`
}

// loadHeader fetches and decrypts the header block at id under temporalKey.
func loadHeader(ctx context.Context, bs blockstore.Blockstore, temporalKey [32]byte, id cid.Cid) (PrivateNodeHeader, error) {
	block, err := bs.Get(ctx, id)
	if err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: fetching header %s: %w", id, err)
	}
	header, err := decryptHeader(temporalKey, block)
	if err != nil {
		return PrivateNodeHeader{}, fmt.Errorf("private: decrypting header %s: %w", id, err)
	}
	return header, nil
}

// LoadNode fetches and decrypts the node a PrivateRef points to: it reads
// the content block (decrypted under the snapshot key), reads the
// header_cid the content block names directly (decrypted under the
// temporal key), and confirms the header's folded name
// hashes back to the label it was found under (spec §4.5, §6.2).
func LoadNode(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, ref PrivateRef) (PrivateNode, error) {
	contentCiphertext, err := bs.Get(ctx, ref.ContentCID)
	if err != nil {
		return PrivateNode{}, fmt.Errorf("private: fetching content %s: %w", ref.ContentCID, err)
	}
	contentPlaintext, err := codec.Decrypt(ref.SnapshotKey, contentCiphertext)
	if err != nil {
		return PrivateNode{}, fmt.Errorf("private: decrypting content: %w", err)
	}
	var probe contentProbe
	if err := codec.Unmarshal(contentPlaintext, &probe); err != nil {
		return PrivateNode{}, fmt.Errorf("private: probing content type: %w", err)
	}
	_, headerCID, err := cid.CidFromBytes(probe.HeaderCID)
	if err != nil {
		return PrivateNode{}, fmt.Errorf("private: decoding header cid: %w", err)
	}

	header, err := loadHeader(ctx, bs, ref.TemporalKey, headerCID)
	if err != nil {
		return PrivateNode{}, err
	}
	if header.RevisionLabelHash(setup) != ref.RevisionLabelHash {
		return PrivateNode{}, fmt.Errorf("private: header name does not hash to its forest label")
	}

	switch probe.Type {
	case nodeTypeFile:
		f, err := loadFile(ctx, bs, ref)
		if err != nil {
			return PrivateNode{}, err
		}
		f.attachHeader(header)
		return fileNode(f), nil
	case nodeTypeDirectory:
		d, err := loadDirectory(ctx, bs, ref)
		if err != nil {
			return PrivateNode{}, err
		}
		d.attachHeader(header)
		return dirNode(d), nil
	default:
		return PrivateNode{}, errWrongType
	}
}

// loadRevisionAt loads whichever revision of the node named name was
// recorded at ratchet r, by scanning the forest's (revision-invariant)
// label set and trying every candidate CID as content under r's snapshot
// key. This is how history traversal recovers old revisions without a
// PrivateRef: the label depends only on Name (spec §6.3's
// revision_label_hash formula), so every revision ever written under a
// given name lands in the same forest set, and the set is already
// lowest-CID-first (forest.CIDSet.Union sorts), which doubles as this
// package's documented tie-break for concurrent writers landing on the
// same revision (spec §9's open question on search_latest tie-breaks).
func loadRevisionAt(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, name nameaccumulator.Name, r ratchet.Ratchet) (PrivateNode, error) {
	labelHash := forest.Label{Accumulator: name.AsAccumulator(setup)}.Hash()
	set, ok := fo.GetEncrypted(labelHash)
	if !ok {
		return PrivateNode{}, ErrNotFound
	}

	snapshotKey := r.SnapshotKey()
	temporalKey := r.DeriveKey()

	var contentCID cid.Cid
	var contentPlaintext []byte
	for _, candidate := range set {
		block, err := bs.Get(ctx, candidate)
		if err != nil {
			continue
		}
		pt, err := codec.Decrypt(snapshotKey, block)
		if err != nil {
			continue
		}
		contentCID, contentPlaintext = candidate, pt
		break
	}
	if contentPlaintext == nil {
		return PrivateNode{}, fmt.Errorf("private: revision at this ratchet: %w", ErrNotFound)
	}

	var probe contentProbe
	if err := codec.Unmarshal(contentPlaintext, &probe); err != nil {
		return PrivateNode{}, fmt.Errorf("private: probing content type: %w", err)
	}
	_, headerCID, err := cid.CidFromBytes(probe.HeaderCID)
	if err != nil {
		return PrivateNode{}, fmt.Errorf("private: decoding header cid: %w", err)
	}
	header, err := loadHeader(ctx, bs, temporalKey, headerCID)
	if err != nil {
		return PrivateNode{}, fmt.Errorf("private: revision at this ratchet: %w", ErrMissingHeader)
	}

	ref := PrivateRef{RevisionLabelHash: labelHash, TemporalKey: temporalKey, SnapshotKey: snapshotKey, ContentCID: contentCID}
	switch probe.Type {
	case nodeTypeFile:
		f, err := loadFile(ctx, bs, ref)
		if err != nil {
			return PrivateNode{}, err
		}
		f.attachHeader(header)
		return fileNode(f), nil
	case nodeTypeDirectory:
		d, err := loadDirectory(ctx, bs, ref)
		if err != nil {
			return PrivateNode{}, err
		}
		d.attachHeader(header)
		return dirNode(d), nil
	default:
		return PrivateNode{}, errWrongType
	}
}

// storeNode persists n (file or directory) into bs and deposits its blocks
// into fo, returning the updated forest and n's PrivateRef.
func storeNode(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, n PrivateNode, fileData []byte) (*forest.Forest, PrivateRef, error) {
	if n.File != nil {
		newForest, contentCID, err := storeFile(ctx, bs, fo, setup, n.File, fileData)
		if err != nil {
			return nil, PrivateRef{}, err
		}
		return newForest, privateRefFromHeader(setup, n.File.Header, contentCID), nil
	}
	newForest, contentCID, err := storeDirectory(ctx, bs, fo, setup, n.Dir)
	if err != nil {
		return nil, PrivateRef{}, err
	}
	return newForest, privateRefFromHeader(setup, n.Dir.Header, contentCID), nil
}
