// Package config loads wnfs-go's small set of runtime knobs from a TOML
// file, the same format and library (github.com/BurntSushi/toml) this
// corpus's go-ethereum stack uses for node configuration.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds everything a cmd/wnfs invocation needs beyond the path
// arguments themselves.
type Config struct {
	// Store selects the blockstore backend: "mem" or "bolt".
	Store StoreConfig `toml:"store"`
	// InlineContentMax is read from the file but not applied anywhere:
	// private.InlineContentMax is a constant and is not overridden.
	InlineContentMax int64 `toml:"inline_content_max"`
	// HistoryBudget is read from the file and defaulted by Load, but
	// cmd/wnfs's history command does not consult it; that command takes
	// its ratchet search budget from its own --budget flag.
	HistoryBudget int `toml:"history_budget"`
	// ShardStrategy selects how private.SetContent splits external file
	// content into shards: "fixed" (the default) or "content-defined".
	ShardStrategy string `toml:"shard_strategy"`
}

// StoreConfig configures the block store backend.
type StoreConfig struct {
	// Kind is "mem" or "bolt". Defaults to "bolt" if empty.
	Kind string `toml:"kind"`
	// Path is the bbolt database file path when Kind == "bolt"; when empty,
	// cmd/wnfs uses its --db flag.
	Path string `toml:"path"`
}

// Default returns the configuration cmd/wnfs falls back to when no config
// file is given.
func Default() Config {
	return Config{
		Store:         StoreConfig{Kind: "bolt"},
		HistoryBudget: 10_000,
		ShardStrategy: "fixed",
	}
}

// Load reads and parses a TOML config file at path, filling in Default()'s
// values for anything the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = Default().Store.Kind
	}
	if cfg.HistoryBudget == 0 {
		cfg.HistoryBudget = Default().HistoryBudget
	}
	if cfg.ShardStrategy == "" {
		cfg.ShardStrategy = Default().ShardStrategy
	}
	return cfg, nil
}
