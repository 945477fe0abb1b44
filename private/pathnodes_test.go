package private

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

func TestGetPathNodesMissingLinkReportsIndex(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()
	root, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)
	fo := newEmptyForestForTest(setup)
	fo, _, err = storeDirectory(ctx, bs, fo, setup, root)
	require.NoError(t, err)

	_, err = GetPathNodes(ctx, bs, fo, setup, root, []string{"a", "b"})
	require.Error(t, err)
	pnErr, ok := err.(*PathNodesError)
	require.True(t, ok)
	require.Equal(t, MissingLink, pnErr.Kind)
	require.Equal(t, 0, pnErr.Index)
}

func TestGetPathNodesNotADirectoryLink(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()
	root, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)

	file, err := NewFile(setup, root.Header.NamePtr(), 1000)
	require.NoError(t, err)
	file = SetContent(setup, file, []byte("x"), 1000, ShardStrategyFixed)

	fo := newEmptyForestForTest(setup)
	fo, contentCID, err := storeFile(ctx, bs, fo, setup, file, []byte("x"))
	require.NoError(t, err)
	fileRef := privateRefFromHeader(setup, file.Header, contentCID)
	root = WithEntry(root, "f", fileRef, 1001)

	_, err = GetPathNodes(ctx, bs, fo, setup, root, []string{"f", "nested"})
	require.Error(t, err)
	pnErr, ok := err.(*PathNodesError)
	require.True(t, ok)
	require.Equal(t, NotADirectoryLink, pnErr.Kind)
}

func TestGetOrCreatePathNodesFillsMissingChain(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()
	root, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)

	pn, err := GetOrCreatePathNodes(ctx, bs, newEmptyForestForTest(setup), setup, root, []string{"a", "b", "c"}, 1000)
	require.NoError(t, err)
	require.Len(t, pn.Path, 3)
	require.Equal(t, "a", pn.Path[0].Name)
	require.Equal(t, "c", pn.Path[2].Name)
}

func TestFixUpPathNodesThreadsRefsUpward(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()
	root, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)
	fo := newEmptyForestForTest(setup)
	fo, _, err = storeDirectory(ctx, bs, fo, setup, root)
	require.NoError(t, err)

	pn, err := GetOrCreatePathNodes(ctx, bs, fo, setup, root, []string{"a", "b"}, 1001)
	require.NoError(t, err)

	file, err := NewFile(setup, pn.Tail.Header.NamePtr(), 1001)
	require.NoError(t, err)
	file = SetContent(setup, file, []byte("hello"), 1001, ShardStrategyFixed)
	fo, contentCID, err := storeFile(ctx, bs, fo, setup, file, []byte("hello"))
	require.NoError(t, err)
	fileRef := privateRefFromHeader(setup, file.Header, contentCID)
	pn.Tail = WithEntry(pn.Tail, "f", fileRef, 1001)

	newRoot, fo, err := FixUpPathNodes(ctx, bs, fo, setup, pn, 1001)
	require.NoError(t, err)

	resolved, err := GetPathNodes(ctx, bs, fo, setup, newRoot, []string{"a", "b"})
	require.NoError(t, err)
	ref, ok := resolved.Tail.Lookup("f")
	require.True(t, ok)

	node, err := LoadNode(ctx, bs, fo, setup, ref)
	require.NoError(t, err)
	require.True(t, node.IsFile())
}
