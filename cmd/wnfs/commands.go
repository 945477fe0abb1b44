package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fission-suite/wnfs-go/private"
	"github.com/fission-suite/wnfs-go/public"
)

// appCtx is threaded into every command's Run method by kong's dependency
// injection (kong.Context.Run(appCtx)), carrying the resources a command
// needs beyond its own flags.
type appCtx struct {
	ctx           context.Context
	sess          *session
	statePath     string
	now           int64
	shardStrategy private.ShardStrategy
}

// splitPath turns a slash-separated CLI path argument into path segments,
// treating "" and "/" as the root (zero segments).
func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

type InitCmd struct{}

func (c *InitCmd) Run(a *appCtx) error {
	root, err := private.NewRoot(a.ctx, a.sess.blockstore(), a.sess.setup, a.now)
	if err != nil {
		return err
	}
	root = root.WithShardStrategy(a.shardStrategy)
	a.sess.fo = root.Forest
	ref, _ := root.PrivateRef()
	a.sess.root = &ref

	pubRoot, err := public.NewRoot(a.ctx, a.sess.blockstore(), a.now)
	if err != nil {
		return err
	}
	pubCID := pubRoot.CID()
	a.sess.publicRoot = &pubCID

	fmt.Println("initialized empty private and public roots")
	return saveSession(a.statePath, a.sess)
}

func (a *appCtx) openPrivateRoot() (*private.Root, error) {
	if a.sess.root == nil {
		return nil, fmt.Errorf("no private root yet; run `wnfs init` first")
	}
	root, err := private.OpenRoot(a.ctx, a.sess.blockstore(), a.sess.setup, a.sess.fo, *a.sess.root)
	if err != nil {
		return nil, err
	}
	return root.WithShardStrategy(a.shardStrategy), nil
}

func (a *appCtx) openPublicRoot() (*public.Root, error) {
	if a.sess.publicRoot == nil {
		return nil, fmt.Errorf("no public root yet; run `wnfs init` first")
	}
	return public.OpenRoot(a.ctx, a.sess.blockstore(), *a.sess.publicRoot)
}

func (a *appCtx) commitPrivate(root *private.Root) error {
	a.sess.fo = root.Forest
	ref, _ := root.PrivateRef()
	a.sess.root = &ref
	return saveSession(a.statePath, a.sess)
}

func (a *appCtx) commitPublic(root *public.Root) error {
	c := root.CID()
	a.sess.publicRoot = &c
	return saveSession(a.statePath, a.sess)
}

type MkdirCmd struct {
	Path string `arg:"" help:"directory path, e.g. docs/notes"`
}

func (c *MkdirCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	root, err = root.Mkdir(a.ctx, splitPath(c.Path), a.now)
	if err != nil {
		return err
	}
	return a.commitPrivate(root)
}

type WriteCmd struct {
	Path    string `arg:"" help:"file path, e.g. docs/readme.txt"`
	Content string `arg:"" help:"file content"`
}

func (c *WriteCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}

	path := splitPath(c.Path)
	if len(path) > 0 {
		if pn, lookupErr := private.GetPathNodes(a.ctx, a.sess.blockstore(), root.Forest, root.Setup, root.Dir, path[:len(path)-1]); lookupErr == nil {
			if ref, ok := pn.Tail.Lookup(path[len(path)-1]); ok {
				if node, loadErr := private.LoadNode(a.ctx, a.sess.blockstore(), root.Forest, root.Setup, ref); loadErr == nil {
					if cp, cpErr := encodeCheckpoint(root.Setup, node.Header().Name, node.Header().Ratchet); cpErr == nil {
						fmt.Println("checkpoint (pre-write):", cp)
					}
				}
			}
		}
	}

	root, err = root.Write(a.ctx, path, []byte(c.Content), a.now)
	if err != nil {
		return err
	}
	return a.commitPrivate(root)
}

type ReadCmd struct {
	Path string `arg:"" help:"file path"`
}

func (c *ReadCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	content, err := root.Read(a.ctx, splitPath(c.Path))
	if err != nil {
		return err
	}
	fmt.Println(string(content))
	return nil
}

type LsCmd struct {
	Path string `arg:"" optional:"" help:"directory path, defaults to root"`
}

func (c *LsCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	entries, err := root.Ls(a.ctx, splitPath(c.Path))
	if err != nil {
		return err
	}
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-4s %s\n", kind, e.Name)
	}
	return nil
}

type RmCmd struct {
	Path string `arg:"" help:"path to remove"`
}

func (c *RmCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	root, err = root.Rm(a.ctx, splitPath(c.Path), a.now)
	if err != nil {
		return err
	}
	return a.commitPrivate(root)
}

type MvCmd struct {
	From string `arg:""`
	To   string `arg:""`
}

func (c *MvCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	root, err = root.BasicMv(a.ctx, splitPath(c.From), splitPath(c.To), a.now)
	if err != nil {
		return err
	}
	return a.commitPrivate(root)
}

type HistoryCmd struct {
	Path       string `arg:"" help:"file path"`
	Checkpoint string `help:"checkpoint string printed by a prior write" required:""`
	Budget     int    `default:"1000" help:"maximum ratchet increments to search"`
}

func (c *HistoryCmd) Run(a *appCtx) error {
	root, err := a.openPrivateRoot()
	if err != nil {
		return err
	}
	_, pastRatchet, err := decodeCheckpoint(c.Checkpoint)
	if err != nil {
		return err
	}

	it, err := private.PreviousOf(a.ctx, a.sess.blockstore(), root.Forest, root.Setup, root.Dir, splitPath(c.Path), pastRatchet, false, c.Budget)
	if err != nil {
		return err
	}
	for {
		node, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		meta := node.Metadata()
		kind := "dir"
		if node.IsFile() {
			kind = "file"
		}
		fmt.Printf("%s mtime=%d\n", kind, meta.Mtime)
	}
	return nil
}

type PubMkdirCmd struct {
	Path string `arg:""`
}

func (c *PubMkdirCmd) Run(a *appCtx) error {
	root, err := a.openPublicRoot()
	if err != nil {
		return err
	}
	root, err = root.Mkdir(a.ctx, splitPath(c.Path), a.now)
	if err != nil {
		return err
	}
	return a.commitPublic(root)
}

type PubWriteCmd struct {
	Path    string `arg:""`
	Content string `arg:""`
}

func (c *PubWriteCmd) Run(a *appCtx) error {
	root, err := a.openPublicRoot()
	if err != nil {
		return err
	}
	root, err = root.Write(a.ctx, splitPath(c.Path), []byte(c.Content), a.now)
	if err != nil {
		return err
	}
	return a.commitPublic(root)
}

type PubReadCmd struct {
	Path string `arg:""`
}

func (c *PubReadCmd) Run(a *appCtx) error {
	root, err := a.openPublicRoot()
	if err != nil {
		return err
	}
	content, err := root.Read(a.ctx, splitPath(c.Path))
	if err != nil {
		return err
	}
	fmt.Println(string(content))
	return nil
}

type PubLsCmd struct {
	Path string `arg:"" optional:""`
}

func (c *PubLsCmd) Run(a *appCtx) error {
	root, err := a.openPublicRoot()
	if err != nil {
		return err
	}
	entries, err := root.Ls(a.ctx, splitPath(c.Path))
	if err != nil {
		return err
	}
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-4s %s\n", kind, e.Name)
	}
	return nil
}
