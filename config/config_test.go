package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wnfs.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
[store]
kind = "bolt"
path = "blocks.db"
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.Store.Kind)
	require.Equal(t, "blocks.db", cfg.Store.Path)
	require.Equal(t, Default().HistoryBudget, cfg.HistoryBudget)
	require.Equal(t, Default().ShardStrategy, cfg.ShardStrategy)
}

func TestLoadPreservesExplicitShardStrategy(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wnfs.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
shard_strategy = "content-defined"
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "content-defined", cfg.ShardStrategy)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
