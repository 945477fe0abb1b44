package private

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
)

var log = logging.Logger("wnfs/private")

// Root is the directory operation engine's entry point: an immutable
// snapshot of a private tree's root directory plus the forest it was
// resolved against. Every mutating method returns a new Root, leaving the
// receiver (and its forest) untouched (spec §2, §5).
type Root struct {
	bs     blockstore.Blockstore
	Setup  nameaccumulator.Setup
	Forest *forest.Forest
	Dir    *PrivateDirectory
	// ShardStrategy selects how Write splits external file content into
	// shards. Zero value is ShardStrategyFixed.
	ShardStrategy ShardStrategy
}

// WithShardStrategy returns a copy of r that plans external file shards
// using strategy on subsequent writes (see config.Config.ShardStrategy).
func (r *Root) WithShardStrategy(strategy ShardStrategy) *Root {
	next := *r
	next.ShardStrategy = strategy
	return &next
}

// NewRoot creates a brand-new, empty private tree backed by bs, with a
// fresh forest.
func NewRoot(ctx context.Context, bs blockstore.Blockstore, setup nameaccumulator.Setup, now int64) (*Root, error) {
	dir, err := NewDirectory(setup, nil, now)
	if err != nil {
		return nil, err
	}
	fo := forest.New(setup)
	fo, _, err = storeDirectory(ctx, bs, fo, setup, dir)
	if err != nil {
		return nil, err
	}
	return &Root{bs: bs, Setup: setup, Forest: fo, Dir: dir}, nil
}

// OpenRoot loads an existing root directory given its capability and the
// forest it was written into.
func OpenRoot(ctx context.Context, bs blockstore.Blockstore, setup nameaccumulator.Setup, fo *forest.Forest, ref PrivateRef) (*Root, error) {
	node, err := LoadNode(ctx, bs, fo, setup, ref)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, fmt.Errorf("private: opening root: %w", ErrNotADirectory)
	}
	return &Root{bs: bs, Setup: setup, Forest: fo, Dir: node.Dir}, nil
}

// PrivateRef returns the capability for the root directory's current
// revision.
func (r *Root) PrivateRef() (PrivateRef, bool) {
	return PrivateNode{Dir: r.Dir}.AsPrivateRef(r.Setup)
}

func splitPath(path []string) ([]string, string, error) {
	if len(path) == 0 {
		return nil, "", ErrInvalidPath
	}
	return path[:len(path)-1], path[len(path)-1], nil
}

// resolveAsNotFound maps a *PathNodesError from a read-only resolution
// (read/ls/rm, which never create missing links) onto the spec's
// NotFound/InvalidPath vocabulary.
func resolveAsNotFound(err error) error {
	if pnErr, ok := err.(*PathNodesError); ok {
		if pnErr.Kind == NotADirectoryLink {
			return ErrInvalidPath
		}
		return ErrNotFound
	}
	return err
}

// ListEntry is one row of a directory listing: a name and its metadata,
// without fetching the entry's full content (spec §4.7's ls).
type ListEntry struct {
	Name     string
	IsDir    bool
	Metadata Metadata
}

// Write implements spec §4.7's write(path, content, time).
func (r *Root) Write(ctx context.Context, path []string, content []byte, now int64) (*Root, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("write", path, err)
	}

	pn, err := GetOrCreatePathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, parentSegs, now)
	if err != nil {
		return nil, opErr("write", path, err)
	}

	var file *PrivateFile
	if ref, exists := pn.Tail.Lookup(name); exists {
		node, err := LoadNode(ctx, r.bs, r.Forest, r.Setup, ref)
		if err != nil {
			return nil, opErr("write", path, err)
		}
		if node.IsDir() {
			return nil, opErr("write", path, ErrDirectoryAlreadyExists)
		}
		file = node.File
	} else {
		file, err = NewFile(r.Setup, pn.Tail.Header.NamePtr(), now)
		if err != nil {
			return nil, opErr("write", path, err)
		}
	}

	file = SetContent(r.Setup, file, content, now, r.ShardStrategy)
	fo, contentCID, err := storeFile(ctx, r.bs, r.Forest, r.Setup, file, content)
	if err != nil {
		return nil, opErr("write", path, err)
	}
	fileRef := privateRefFromHeader(r.Setup, file.Header, contentCID)

	pn.Tail = WithEntry(pn.Tail, name, fileRef, now)
	newRootDir, fo, err := FixUpPathNodes(ctx, r.bs, fo, r.Setup, pn, now)
	if err != nil {
		return nil, opErr("write", path, err)
	}
	log.Debugw("write", "path", path, "bytes", len(content))
	return &Root{bs: r.bs, Setup: r.Setup, Forest: fo, Dir: newRootDir}, nil
}

// Mkdir implements spec §4.7's mkdir(path, time).
func (r *Root) Mkdir(ctx context.Context, path []string, now int64) (*Root, error) {
	if len(path) == 0 {
		return nil, opErr("mkdir", path, ErrInvalidPath)
	}

	if _, err := GetPathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, path); err == nil {
		return r, nil // already exists as a directory chain; idempotent no-op
	} else if pnErr, ok := err.(*PathNodesError); ok && pnErr.Kind == NotADirectoryLink {
		return nil, opErr("mkdir", path, ErrInvalidPath)
	}

	pn, err := GetOrCreatePathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, path, now)
	if err != nil {
		return nil, opErr("mkdir", path, err)
	}
	newRootDir, fo, err := FixUpPathNodes(ctx, r.bs, r.Forest, r.Setup, pn, now)
	if err != nil {
		return nil, opErr("mkdir", path, err)
	}
	return &Root{bs: r.bs, Setup: r.Setup, Forest: fo, Dir: newRootDir}, nil
}

// Read implements spec §4.7's read(path).
func (r *Root) Read(ctx context.Context, path []string) ([]byte, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("read", path, err)
	}

	pn, err := GetPathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, parentSegs)
	if err != nil {
		return nil, opErr("read", path, resolveAsNotFound(err))
	}
	ref, exists := pn.Tail.Lookup(name)
	if !exists {
		return nil, opErr("read", path, ErrNotFound)
	}
	node, err := LoadNode(ctx, r.bs, r.Forest, r.Setup, ref)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	if !node.IsFile() {
		return nil, opErr("read", path, ErrNotAFile)
	}
	content, err := ReadContent(ctx, r.bs, r.Forest, r.Setup, node.File)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	return content, nil
}

// Ls implements spec §4.7's ls(path).
func (r *Root) Ls(ctx context.Context, path []string) ([]ListEntry, error) {
	pn, err := GetPathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, path)
	if err != nil {
		return nil, opErr("ls", path, resolveAsNotFound(err))
	}

	out := make([]ListEntry, 0, len(pn.Tail.Entries))
	for _, e := range pn.Tail.Entries {
		node, err := LoadNode(ctx, r.bs, r.Forest, r.Setup, e.Ref)
		if err != nil {
			return nil, opErr("ls", path, err)
		}
		out = append(out, ListEntry{Name: e.Name, IsDir: node.IsDir(), Metadata: node.Metadata()})
	}
	return out, nil
}

// Rm implements spec §4.7's rm(path).
func (r *Root) Rm(ctx context.Context, path []string, now int64) (*Root, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("rm", path, err)
	}

	pn, err := GetPathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, parentSegs)
	if err != nil {
		return nil, opErr("rm", path, resolveAsNotFound(err))
	}
	newTail, existed := WithoutEntry(pn.Tail, name, now)
	if !existed {
		return nil, opErr("rm", path, ErrNotFound)
	}
	pn.Tail = newTail

	newRootDir, fo, err := FixUpPathNodes(ctx, r.bs, r.Forest, r.Setup, pn, now)
	if err != nil {
		return nil, opErr("rm", path, err)
	}
	return &Root{bs: r.bs, Setup: r.Setup, Forest: fo, Dir: newRootDir}, nil
}

// BasicMv implements spec §4.7's basic_mv(from, to, time). It does not
// detect "move into descendant"; callers must not do that.
func (r *Root) BasicMv(ctx context.Context, from, to []string, now int64) (*Root, error) {
	fromParent, fromName, err := splitPath(from)
	if err != nil {
		return nil, opErr("mv", from, err)
	}
	toParent, toName, err := splitPath(to)
	if err != nil {
		return nil, opErr("mv", to, err)
	}

	pnFrom, err := GetPathNodes(ctx, r.bs, r.Forest, r.Setup, r.Dir, fromParent)
	if err != nil {
		return nil, opErr("mv", from, resolveAsNotFound(err))
	}
	ref, exists := pnFrom.Tail.Lookup(fromName)
	if !exists {
		return nil, opErr("mv", from, ErrNotFound)
	}
	moved, err := LoadNode(ctx, r.bs, r.Forest, r.Setup, ref)
	if err != nil {
		return nil, opErr("mv", from, err)
	}

	movedRef, fo, err := advanceForMove(ctx, r.bs, r.Forest, r.Setup, moved, now, r.ShardStrategy)
	if err != nil {
		return nil, opErr("mv", from, err)
	}

	newFromTail, _ := WithoutEntry(pnFrom.Tail, fromName, now)
	pnFrom.Tail = newFromTail
	rootAfterRm, fo, err := FixUpPathNodes(ctx, r.bs, fo, r.Setup, pnFrom, now)
	if err != nil {
		return nil, opErr("mv", from, err)
	}

	pnTo, err := GetOrCreatePathNodes(ctx, r.bs, fo, r.Setup, rootAfterRm, toParent, now)
	if err != nil {
		return nil, opErr("mv", to, err)
	}
	if _, occupied := pnTo.Tail.Lookup(toName); occupied {
		return nil, opErr("mv", to, ErrFileAlreadyExists)
	}
	pnTo.Tail = WithEntry(pnTo.Tail, toName, movedRef, now)

	finalRootDir, finalFo, err := FixUpPathNodes(ctx, r.bs, fo, r.Setup, pnTo, now)
	if err != nil {
		return nil, opErr("mv", to, err)
	}
	return &Root{bs: r.bs, Setup: r.Setup, Forest: finalFo, Dir: finalRootDir}, nil
}

// advanceForMove applies the copy-on-write protocol to the node being
// moved and updates its mtime, re-deriving external file shards under the
// new revision's snapshot key since the ratchet (and therefore every
// derived key) changes on every revision bump.
func advanceForMove(ctx context.Context, bs blockstore.Blockstore, fo *forest.Forest, setup nameaccumulator.Setup, moved PrivateNode, now int64, strategy ShardStrategy) (PrivateRef, *forest.Forest, error) {
	if moved.IsFile() {
		content, err := ReadContent(ctx, bs, fo, setup, moved.File)
		if err != nil {
			return PrivateRef{}, nil, err
		}
		nf := prepareNextRevision(moved.File).(*PrivateFile)
		nf = SetContent(setup, nf, content, now, strategy)
		newFo, contentCID, err := storeFile(ctx, bs, fo, setup, nf, content)
		if err != nil {
			return PrivateRef{}, nil, err
		}
		return privateRefFromHeader(setup, nf.Header, contentCID), newFo, nil
	}

	nd := prepareNextRevision(moved.Dir).(*PrivateDirectory)
	nd.Metadata.Mtime = now
	newFo, contentCID, err := storeDirectory(ctx, bs, fo, setup, nd)
	if err != nil {
		return PrivateRef{}, nil, err
	}
	return privateRefFromHeader(setup, nd.Header, contentCID), newFo, nil
}
