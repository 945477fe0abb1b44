package public

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/blockstore"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)

	root, err = root.Write(ctx, []string{"docs", "readme.txt"}, []byte("hello public tree"), 101)
	require.NoError(t, err)

	content, err := root.Read(ctx, []string{"docs", "readme.txt"})
	require.NoError(t, err)
	require.Equal(t, []byte("hello public tree"), content)
}

func TestLsListsEntries(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)

	root, err = root.Write(ctx, []string{"a.txt"}, []byte("a"), 101)
	require.NoError(t, err)
	root, err = root.Mkdir(ctx, []string{"sub"}, 102)
	require.NoError(t, err)

	entries, err := root.Ls(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]bool{}
	for _, e := range entries {
		byName[e.Name] = e.IsDir
	}
	require.False(t, byName["a.txt"])
	require.True(t, byName["sub"])
}

func TestRmRemovesEntry(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)

	root, err = root.Write(ctx, []string{"a.txt"}, []byte("a"), 101)
	require.NoError(t, err)
	root, err = root.Rm(ctx, []string{"a.txt"}, 102)
	require.NoError(t, err)

	_, err = root.Read(ctx, []string{"a.txt"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)

	root, err = root.Write(ctx, []string{"a.txt"}, []byte("first"), 101)
	require.NoError(t, err)
	root, err = root.Write(ctx, []string{"a.txt"}, []byte("second"), 102)
	require.NoError(t, err)

	content, err := root.Read(ctx, []string{"a.txt"})
	require.NoError(t, err)
	require.Equal(t, []byte("second"), content)
}

func TestOpenRootReopensByCID(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)
	root, err = root.Write(ctx, []string{"nested", "deep", "f.txt"}, []byte("deep content"), 101)
	require.NoError(t, err)

	reopened, err := OpenRoot(ctx, bs, root.CID())
	require.NoError(t, err)

	content, err := reopened.Read(ctx, []string{"nested", "deep", "f.txt"})
	require.NoError(t, err)
	require.Equal(t, []byte("deep content"), content)
}

func TestWriteIntoFilePathFails(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	root, err := NewRoot(ctx, bs, 100)
	require.NoError(t, err)

	root, err = root.Write(ctx, []string{"a.txt"}, []byte("a"), 101)
	require.NoError(t, err)

	_, err = root.Write(ctx, []string{"a.txt", "b.txt"}, []byte("b"), 102)
	require.Error(t, err)
}
