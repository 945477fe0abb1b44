// Command wnfs is a small CLI demonstrating the private and public trees
// against a bbolt-backed block store: mkdir, write, read, ls, rm, mv, and
// a checkpoint-anchored history walk.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	bolt "go.etcd.io/bbolt"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/config"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private"
)

func nowUnixNano() int64 { return time.Now().UnixNano() }

// shardStrategyFromConfig maps config.Config's TOML-friendly string onto
// private.ShardStrategy, defaulting to fixed-size shards for anything
// unrecognized.
func shardStrategyFromConfig(s string) private.ShardStrategy {
	if s == "content-defined" {
		return private.ShardStrategyContentDefined
	}
	return private.ShardStrategyFixed
}

var cli struct {
	Config string `default:"wnfs.toml" help:"path to a TOML config file, if present"`
	DB     string `default:"wnfs.db" help:"bbolt database file for block storage"`
	State  string `default:"wnfs.state.json" help:"forest/root capability snapshot"`

	Init    InitCmd     `cmd:"" help:"create empty private and public roots"`
	Mkdir   MkdirCmd    `cmd:"" help:"create a private directory"`
	Write   WriteCmd    `cmd:"" help:"write a private file"`
	Read    ReadCmd     `cmd:"" help:"read a private file"`
	Ls      LsCmd       `cmd:"" help:"list a private directory"`
	Rm      RmCmd       `cmd:"" help:"remove a private path"`
	Mv      MvCmd       `cmd:"" help:"move a private path"`
	History HistoryCmd  `cmd:"" help:"walk a private file's revision history from a checkpoint"`

	PubMkdir PubMkdirCmd `cmd:"" name:"pub-mkdir" help:"create a public directory"`
	PubWrite PubWriteCmd `cmd:"" name:"pub-write" help:"write a public file"`
	PubRead  PubReadCmd  `cmd:"" name:"pub-read" help:"read a public file"`
	PubLs    PubLsCmd    `cmd:"" name:"pub-ls" help:"list a public directory"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("wnfs"),
		kong.Description("private and public WNFS trees over a local block store"),
	)

	cfg := config.Default()
	if _, err := os.Stat(cli.Config); err == nil {
		loaded, err := config.Load(cli.Config)
		kctx.FatalIfErrorf(err)
		cfg = loaded
	}

	var bs blockstore.Blockstore
	switch cfg.Store.Kind {
	case "mem":
		bs = blockstore.NewMemBlockstore()
	default:
		dbPath := cli.DB
		if cfg.Store.Path != "" {
			dbPath = cfg.Store.Path
		}
		db, err := bolt.Open(dbPath, 0o600, nil)
		kctx.FatalIfErrorf(err)
		defer db.Close()
		boltStore, err := blockstore.NewBoltStore(db)
		kctx.FatalIfErrorf(err)
		bs = boltStore
	}

	setup := nameaccumulator.TrustedSetup()
	sess, err := loadSession(cli.State, setup, bs)
	kctx.FatalIfErrorf(err)

	app := &appCtx{
		ctx:           context.Background(),
		sess:          sess,
		statePath:     cli.State,
		now:           nowUnixNano(),
		shardStrategy: shardStrategyFromConfig(cfg.ShardStrategy),
	}

	err = kctx.Run(app)
	kctx.FatalIfErrorf(err)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
