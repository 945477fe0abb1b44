package private

import (
	"context"
	"fmt"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
	"github.com/fission-suite/wnfs-go/ratchet"
)

// HistoryIterator yields prior revisions of a single node, newest first,
// stopping once it reaches the caller's known anchor revision (spec §4.8's
// previous_of). Unlike the spec's ancestor-threading description, this
// implementation exploits the fact that a node's forest label does not
// change across its own revisions (spec §6.3): every revision's blocks
// accumulate in one CID set, so walking history is a matter of trying each
// candidate ratchet against that one set rather than re-deriving ancestor
// PathSegmentHistory frames. See DESIGN.md for why this path was chosen
// over literally threading PreviousLink envelopes.
type HistoryIterator struct {
	ctx   context.Context
	bs    blockstore.Blockstore
	fo    *forest.Forest
	setup nameaccumulator.Setup
	name  nameaccumulator.Name

	// remaining holds every ratchet still to be emitted, newest first,
	// with the caller's anchor (pastRatchet) appended last so it is
	// yielded as the final, inclusive step before Next reports done.
	remaining []ratchet.Ratchet
}

// PreviousOf builds a HistoryIterator over the node at path, walking back
// from its current revision down to and including pastRatchet. searchLatest
// re-seeks the node's most recent revision (beyond what root currently
// points at) before computing the walk, for callers holding a stale root
// but wanting to see revisions a disjoint, newer writer has since deposited
// under the same name (spec §9's open question on search_latest; this
// implementation's tie-break for concurrent same-revision writers is
// lowest-CID, via forest.CIDSet's sorted union — see loadRevisionAt).
func PreviousOf(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, root *PrivateDirectory, path []string, pastRatchet ratchet.Ratchet, searchLatest bool, budget int) (*HistoryIterator, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("history", path, err)
	}
	pn, err := GetPathNodes(ctx, bs, fo, setup, root, parentSegs)
	if err != nil {
		return nil, opErr("history", path, resolveAsNotFound(err))
	}
	ref, exists := pn.Tail.Lookup(name)
	if !exists {
		return nil, opErr("history", path, ErrNotFound)
	}
	node, err := LoadNode(ctx, bs, fo, setup, ref)
	if err != nil {
		return nil, opErr("history", path, err)
	}

	current := node.Header().Ratchet
	targetName := node.Header().Name

	if searchLatest {
		current = seekLatestRatchet(ctx, bs, fo, setup, targetName, current, budget)
	}

	between, err := ratchet.PreviousIter(pastRatchet, current, budget)
	if err != nil {
		return nil, opErr("history", path, err)
	}
	remaining := append(between, pastRatchet)

	return &HistoryIterator{
		ctx: ctx, bs: bs, fo: fo, setup: setup,
		name:      targetName,
		remaining: remaining,
	}, nil
}

// seekLatestRatchet advances from known forward, budget steps at most,
// stopping at the last ratchet whose revision is actually present in the
// forest. Used to implement searchLatest.
func seekLatestRatchet(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, name nameaccumulator.Name, from ratchet.Ratchet, budget int) ratchet.Ratchet {
	cur := from
	for i := 0; i < budget; i++ {
		next := cur.Inc()
		if _, err := loadRevisionAt(ctx, bs, fo, setup, name, next); err != nil {
			break
		}
		cur = next
	}
	return cur
}

// Next returns the next prior revision, newest first. ok is false once the
// anchor revision has been yielded and there is nothing further back to
// report.
func (it *HistoryIterator) Next() (PrivateNode, bool, error) {
	if len(it.remaining) == 0 {
		return PrivateNode{}, false, nil
	}
	r := it.remaining[0]
	it.remaining = it.remaining[1:]

	node, err := loadRevisionAt(it.ctx, it.bs, it.fo, it.setup, it.name, r)
	if err != nil {
		return PrivateNode{}, false, fmt.Errorf("private: history: %w", err)
	}
	return node, true, nil
}
