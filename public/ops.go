package public

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/fission-suite/wnfs-go/blockstore"
)

var log = logging.Logger("wnfs/public")

// Root is the public tree's entry point: an immutable snapshot of a root
// directory's CID. Every mutating method returns a new Root, leaving the
// receiver untouched, mirroring private.Root.
type Root struct {
	bs  blockstore.Blockstore
	Dir *PublicDirectory
}

// NewRoot creates a brand-new, empty public tree backed by bs.
func NewRoot(ctx context.Context, bs blockstore.Blockstore, now int64) (*Root, error) {
	dir := NewDirectory(now)
	if _, err := StoreDirectory(ctx, bs, dir); err != nil {
		return nil, err
	}
	return &Root{bs: bs, Dir: dir}, nil
}

// OpenRoot loads an existing root directory given its CID.
func OpenRoot(ctx context.Context, bs blockstore.Blockstore, rootCID cid.Cid) (*Root, error) {
	dir, err := LoadDirectory(ctx, bs, rootCID)
	if err != nil {
		return nil, err
	}
	return &Root{bs: bs, Dir: dir}, nil
}

// CID returns the root directory's current block CID.
func (r *Root) CID() cid.Cid { return r.Dir.selfCID }

func splitPath(path []string) ([]string, string, error) {
	if len(path) == 0 {
		return nil, "", ErrInvalidPath
	}
	return path[:len(path)-1], path[len(path)-1], nil
}

// pathNode is one step of a resolved directory path, mirroring
// private.PathSegment.
type pathNode struct {
	dir  *PublicDirectory
	name string
}

func getPathNodes(ctx context.Context, bs blockstore.Blockstore, root *PublicDirectory, segments []string) ([]pathNode, *PublicDirectory, error) {
	cur := root
	path := make([]pathNode, 0, len(segments))
	for _, seg := range segments {
		childCID, ok := cur.Lookup(seg)
		if !ok {
			return nil, nil, fmt.Errorf("%q: %w", seg, ErrNotFound)
		}
		kind, err := Probe(ctx, bs, childCID)
		if err != nil {
			return nil, nil, err
		}
		if kind != KindDirectory {
			return nil, nil, fmt.Errorf("%q: %w", seg, ErrNotADirectory)
		}
		child, err := LoadDirectory(ctx, bs, childCID)
		if err != nil {
			return nil, nil, err
		}
		path = append(path, pathNode{dir: cur, name: seg})
		cur = child
	}
	return path, cur, nil
}

func getOrCreatePathNodes(ctx context.Context, bs blockstore.Blockstore, root *PublicDirectory, segments []string, now int64) ([]pathNode, *PublicDirectory, error) {
	path, tail, err := getPathNodes(ctx, bs, root, segments)
	if err == nil {
		return path, tail, nil
	}
	if !isNotFound(err) {
		return nil, nil, err
	}

	cur := root
	resolved := make([]pathNode, 0, len(segments))
	for i, seg := range segments {
		childCID, ok := cur.Lookup(seg)
		if ok {
			kind, err := Probe(ctx, bs, childCID)
			if err != nil {
				return nil, nil, err
			}
			if kind != KindDirectory {
				return nil, nil, fmt.Errorf("%q: %w", seg, ErrNotADirectory)
			}
			child, err := LoadDirectory(ctx, bs, childCID)
			if err != nil {
				return nil, nil, err
			}
			resolved = append(resolved, pathNode{dir: cur, name: seg})
			cur = child
			continue
		}
		for j := i; j < len(segments); j++ {
			resolved = append(resolved, pathNode{dir: cur, name: segments[j]})
			cur = NewDirectory(now)
		}
		break
	}
	return resolved, cur, nil
}

// fixUpPathNodes stores tail and threads its CID up into every ancestor,
// storing each in turn, without any forest indirection.
func fixUpPathNodes(ctx context.Context, bs blockstore.Blockstore, path []pathNode, tail *PublicDirectory, now int64) (*PublicDirectory, error) {
	cur := tail
	if _, err := StoreDirectory(ctx, bs, cur); err != nil {
		return nil, err
	}

	for i := len(path) - 1; i >= 0; i-- {
		seg := path[i]
		parent := WithEntry(seg.dir, seg.name, cur.selfCID, now)
		if _, err := StoreDirectory(ctx, bs, parent); err != nil {
			return nil, err
		}
		cur = parent
	}
	return cur, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Write implements write(path, content, time): spec.md's directory
// operation engine applied to the plaintext tree.
func (r *Root) Write(ctx context.Context, path []string, content []byte, now int64) (*Root, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("write", path, err)
	}

	pathNodes, tail, err := getOrCreatePathNodes(ctx, r.bs, r.Dir, parentSegs, now)
	if err != nil {
		return nil, opErr("write", path, err)
	}

	var file *PublicFile
	if childCID, exists := tail.Lookup(name); exists {
		kind, err := Probe(ctx, r.bs, childCID)
		if err != nil {
			return nil, opErr("write", path, err)
		}
		if kind != KindFile {
			return nil, opErr("write", path, ErrDirectoryAlreadyExists)
		}
		file, err = LoadFile(ctx, r.bs, childCID)
		if err != nil {
			return nil, opErr("write", path, err)
		}
	} else {
		file = NewFile(now)
	}

	file, err = SetContent(ctx, r.bs, file, content, now)
	if err != nil {
		return nil, opErr("write", path, err)
	}
	fileCID, err := StoreFile(ctx, r.bs, file)
	if err != nil {
		return nil, opErr("write", path, err)
	}

	newTail := WithEntry(tail, name, fileCID, now)
	newRoot, err := fixUpPathNodes(ctx, r.bs, pathNodes, newTail, now)
	if err != nil {
		return nil, opErr("write", path, err)
	}
	log.Debugw("write", "path", path, "bytes", len(content))
	return &Root{bs: r.bs, Dir: newRoot}, nil
}

// Mkdir implements mkdir(path, time).
func (r *Root) Mkdir(ctx context.Context, path []string, now int64) (*Root, error) {
	if len(path) == 0 {
		return nil, opErr("mkdir", path, ErrInvalidPath)
	}
	if _, _, err := getPathNodes(ctx, r.bs, r.Dir, path); err == nil {
		return r, nil
	} else if !isNotFound(err) {
		return nil, opErr("mkdir", path, err)
	}

	pathNodes, tail, err := getOrCreatePathNodes(ctx, r.bs, r.Dir, path, now)
	if err != nil {
		return nil, opErr("mkdir", path, err)
	}
	newRoot, err := fixUpPathNodes(ctx, r.bs, pathNodes, tail, now)
	if err != nil {
		return nil, opErr("mkdir", path, err)
	}
	return &Root{bs: r.bs, Dir: newRoot}, nil
}

// Read implements read(path).
func (r *Root) Read(ctx context.Context, path []string) ([]byte, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	_, tail, err := getPathNodes(ctx, r.bs, r.Dir, parentSegs)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	childCID, exists := tail.Lookup(name)
	if !exists {
		return nil, opErr("read", path, ErrNotFound)
	}
	kind, err := Probe(ctx, r.bs, childCID)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	if kind != KindFile {
		return nil, opErr("read", path, ErrNotAFile)
	}
	file, err := LoadFile(ctx, r.bs, childCID)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	content, err := ReadContent(ctx, r.bs, file)
	if err != nil {
		return nil, opErr("read", path, err)
	}
	return content, nil
}

// ListEntry is one row of a directory listing.
type ListEntry struct {
	Name  string
	IsDir bool
}

// Ls implements ls(path).
func (r *Root) Ls(ctx context.Context, path []string) ([]ListEntry, error) {
	_, tail, err := getPathNodes(ctx, r.bs, r.Dir, path)
	if err != nil {
		return nil, opErr("ls", path, err)
	}
	out := make([]ListEntry, 0, len(tail.Entries))
	for _, e := range tail.Entries {
		kind, err := Probe(ctx, r.bs, e.CID)
		if err != nil {
			return nil, opErr("ls", path, err)
		}
		out = append(out, ListEntry{Name: e.Name, IsDir: kind == KindDirectory})
	}
	return out, nil
}

// Rm implements rm(path).
func (r *Root) Rm(ctx context.Context, path []string, now int64) (*Root, error) {
	parentSegs, name, err := splitPath(path)
	if err != nil {
		return nil, opErr("rm", path, err)
	}
	pathNodes, tail, err := getPathNodes(ctx, r.bs, r.Dir, parentSegs)
	if err != nil {
		return nil, opErr("rm", path, err)
	}
	newTail, existed := WithoutEntry(tail, name, now)
	if !existed {
		return nil, opErr("rm", path, ErrNotFound)
	}
	newRoot, err := fixUpPathNodes(ctx, r.bs, pathNodes, newTail, now)
	if err != nil {
		return nil, opErr("rm", path, err)
	}
	return &Root{bs: r.bs, Dir: newRoot}, nil
}
