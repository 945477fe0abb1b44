package private

import (
	"context"
	"fmt"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
)

// PathSegment is one step of a resolved directory path: the directory that
// holds segment, which resolves onward to the next PathSegment's directory
// (or to a PathNodes' Tail at the end). Spec §4.7.
type PathSegment struct {
	Dir  *PrivateDirectory
	Name string
}

// PathNodes is the result of walking a chain of directory names: every
// intermediate parent visited, plus the directory the full chain resolves
// to.
type PathNodes struct {
	Path []PathSegment
	Tail *PrivateDirectory
}

// PathNodesErrorKind distinguishes why GetPathNodes stopped short of a
// Complete resolution.
type PathNodesErrorKind int

const (
	// MissingLink means a segment had no entry in its parent directory.
	MissingLink PathNodesErrorKind = iota
	// NotADirectoryLink means a segment resolved to a file, not a directory.
	NotADirectoryLink
)

// PathNodesError reports a partial resolution: everything walked
// successfully so far, and where/why it stopped.
type PathNodesError struct {
	Kind       PathNodesErrorKind
	NodesSoFar PathNodes
	Index      int
	Segment    string
}

func (e *PathNodesError) Error() string {
	switch e.Kind {
	case NotADirectoryLink:
		return fmt.Sprintf("private: %q: %v", e.Segment, ErrNotADirectory)
	default:
		return fmt.Sprintf("private: %q: %v", e.Segment, ErrNotFound)
	}
}

// GetPathNodes walks segments from root, treating every segment as a
// directory name (spec §4.7's get_path_nodes). It returns a *PathNodesError
// rather than a plain error on MissingLink/NotADirectory so the caller can
// recover the nodes already resolved, as get_or_create_path_nodes does.
func GetPathNodes(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, root *PrivateDirectory, segments []string) (*PathNodes, error) {
	cur := root
	path := make([]PathSegment, 0, len(segments))

	for i, seg := range segments {
		ref, ok := cur.Lookup(seg)
		if !ok {
			return nil, &PathNodesError{Kind: MissingLink, NodesSoFar: PathNodes{Path: path, Tail: cur}, Index: i, Segment: seg}
		}
		node, err := LoadNode(ctx, bs, fo, setup, ref)
		if err != nil {
			return nil, fmt.Errorf("private: loading %q: %w", seg, err)
		}
		if !node.IsDir() {
			return nil, &PathNodesError{Kind: NotADirectoryLink, NodesSoFar: PathNodes{Path: path, Tail: cur}, Index: i, Segment: seg}
		}
		path = append(path, PathSegment{Dir: cur, Name: seg})
		cur = node.Dir
	}

	return &PathNodes{Path: path, Tail: cur}, nil
}

// GetOrCreatePathNodes behaves like GetPathNodes, but on MissingLink it
// fills in the remaining chain with freshly created, unpersisted
// directories rather than failing (spec §4.7). NotADirectory still fails,
// with ErrInvalidPath.
func GetOrCreatePathNodes(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, root *PrivateDirectory, segments []string, now int64) (*PathNodes, error) {
	pn, err := GetPathNodes(ctx, bs, fo, setup, root, segments)
	if err == nil {
		return pn, nil
	}

	pnErr, ok := err.(*PathNodesError)
	if !ok {
		return nil, err
	}
	if pnErr.Kind == NotADirectoryLink {
		return nil, fmt.Errorf("private: %q: %w", pnErr.Segment, ErrInvalidPath)
	}

	path := pnErr.NodesSoFar.Path
	cur := pnErr.NodesSoFar.Tail
	for i := pnErr.Index; i < len(segments); i++ {
		child, err := NewDirectory(setup, cur.Header.NamePtr(), now)
		if err != nil {
			return nil, err
		}
		path = append(path, PathSegment{Dir: cur, Name: segments[i]})
		cur = child
	}
	return &PathNodes{Path: path, Tail: cur}, nil
}

// FixUpPathNodes walks pn tail-first, storing the (already-mutated) tail
// and threading a freshly derived PrivateRef up into each ancestor in turn
// (spec §4.7's fix_up_path_nodes): every ancestor on the path advances
// exactly one revision and is itself persisted, so cross-revision reads of
// ancestors never miss a write (spec §9's open question resolves in favor
// of always inserting at fix-up time).
func FixUpPathNodes(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, pn *PathNodes, now int64) (*PrivateDirectory, *forest.Forest, error) {
	cur := pn.Tail

	for i := len(pn.Path) - 1; i >= 0; i-- {
		newFo, contentCID, err := storeDirectory(ctx, bs, fo, setup, cur)
		if err != nil {
			return nil, nil, err
		}
		fo = newFo
		curRef := privateRefFromHeader(setup, cur.Header, contentCID)

		seg := pn.Path[i]
		parent := prepareNextRevision(seg.Dir).(*PrivateDirectory)
		parent = WithEntry(parent, seg.Name, curRef, now)
		cur = parent
	}

	newFo, _, err := storeDirectory(ctx, bs, fo, setup, cur)
	if err != nil {
		return nil, nil, err
	}
	return cur, newFo, nil
}
