// Package forest implements the private forest (spec §3.1, §4.4): a
// persistent HAMT specialized to map revision labels to the set of CIDs
// deposited under them. A set, rather than a single CID, is required
// because two concurrent writers at the same revision label deposit
// distinct content CIDs and neither may be lost — the forest is how
// wnfs-go tolerates concurrent writes without a coordinator, generalizing
// cellstate-treedb's single-writer bolt store into a mergeable value.
package forest

import (
	"sort"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/fission-suite/wnfs-go/hamt"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

var log = logging.Logger("wnfs/forest")

// Label is the forest's key type: a node's fully extended name
// accumulator. Hashing a Label's bytes with SHA3-256 (done inside hamt)
// produces exactly the revision_label_hash of spec §6.3.
type Label struct {
	Accumulator nameaccumulator.Accumulator
}

// Bytes implements hamt.Key.
func (l Label) Bytes() []byte { return l.Accumulator.Bytes() }

// Hash returns this label's position in the forest's HAMT, i.e. the
// revision_label_hash a PrivateRef carries.
func (l Label) Hash() [32]byte { return hamt.Hash[Label](l) }

// CIDSet is an ordered, deduplicated set of CIDs.
type CIDSet []cid.Cid

// Union returns the set union of s and other, sorted for a stable,
// content-independent ordering (merge(a,b) must equal merge(b,a) bit for
// bit, spec §8.1).
func (s CIDSet) Union(other CIDSet) CIDSet {
	seen := make(map[string]struct{}, len(s)+len(other))
	out := make(CIDSet, 0, len(s)+len(other))
	for _, c := range s {
		if _, ok := seen[string(c.Bytes())]; !ok {
			seen[string(c.Bytes())] = struct{}{}
			out = append(out, c)
		}
	}
	for _, c := range other {
		if _, ok := seen[string(c.Bytes())]; !ok {
			seen[string(c.Bytes())] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Contains reports whether id is a member of the set.
func (s CIDSet) Contains(id cid.Cid) bool {
	for _, c := range s {
		if c.Equals(id) {
			return true
		}
	}
	return false
}

// Forest is a persistent mapping from Label to CIDSet. Every mutating
// method returns a new Forest; the receiver is left untouched (spec §2:
// "the forest itself is a persistent value; every mutating operation
// returns a new forest").
type Forest struct {
	Setup nameaccumulator.Setup
	root  *hamt.Node[Label, CIDSet]
}

// New returns an empty forest using the given accumulator setup.
func New(setup nameaccumulator.Setup) *Forest {
	return &Forest{Setup: setup}
}

func unionCombine(a, b CIDSet) CIDSet { return a.Union(b) }

// PutEncrypted unions cids into the set stored at label, returning the new
// forest.
func (f *Forest) PutEncrypted(label Label, cids []cid.Cid) *Forest {
	existing, _ := hamt.Get(f.root, label)
	merged := existing.Union(CIDSet(cids))
	newRoot := hamt.Set(f.root, label, merged)
	log.Debugw("put encrypted", "labelHash", label.Hash(), "cids", len(merged))
	return &Forest{Setup: f.Setup, root: newRoot}
}

// GetEncrypted returns the CID set stored at labelHash, if any.
func (f *Forest) GetEncrypted(labelHash [32]byte) (CIDSet, bool) {
	pairs, ok := hamt.GetByHash(f.root, labelHash)
	if !ok || len(pairs) == 0 {
		return nil, false
	}
	return pairs[0].Value, true
}

// RemoveEncrypted deletes the set stored at labelHash, returning it along
// with the new forest.
func (f *Forest) RemoveEncrypted(labelHash [32]byte) (CIDSet, *Forest, bool) {
	newRoot, val, removed := hamt.RemoveByHash[Label, CIDSet](f.root, labelHash)
	if !removed {
		return nil, f, false
	}
	return val, &Forest{Setup: f.Setup, root: newRoot}, true
}

// Merge combines two forests derived from a common ancestor (or even
// unrelated ones) by unioning CID sets at every shared label. Spec §8.1:
// merge(a, b) == merge(b, a); merge(a, a) == a.
func (f *Forest) Merge(other *Forest) *Forest {
	merged := hamt.Merge(f.root, other.root, unionCombine)
	return &Forest{Setup: f.Setup, root: merged}
}

// Entry is one (label, CID set) pair, as returned by Export.
type Entry struct {
	Label Label
	CIDs  CIDSet
}

// Export lists every (label, CID set) pair the forest holds, for
// serializing a forest's full state (e.g. cmd/wnfs persisting it to disk
// alongside the block store between invocations). Implemented via Diff
// against an empty trie rather than a bespoke walk, since Diff already
// knows how to collect every leaf pair.
func (f *Forest) Export() []Entry {
	diffs := hamt.Diff[Label, CIDSet](nil, f.root, hamt.MaxDepth, func(CIDSet, CIDSet) bool { return true })
	out := make([]Entry, len(diffs))
	for i, d := range diffs {
		out[i] = Entry{Label: d.Key, CIDs: d.After}
	}
	return out
}

// Import rebuilds a forest from a previously Export-ed list of entries.
func Import(setup nameaccumulator.Setup, entries []Entry) *Forest {
	f := New(setup)
	for _, e := range entries {
		f = f.PutEncrypted(e.Label, e.CIDs)
	}
	return f
}

// Diff reports every label whose CID set differs between f and other, up
// to maxDepth trie levels — used for replica reconciliation (spec §4.3).
func (f *Forest) Diff(other *Forest, maxDepth int) []hamt.DiffEntry[Label, CIDSet] {
	equal := func(a, b CIDSet) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equals(b[i]) {
				return false
			}
		}
		return true
	}
	return hamt.Diff(f.root, other.root, maxDepth, equal)
}
