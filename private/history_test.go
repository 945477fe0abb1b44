package private

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/ratchet"
)

func TestPreviousOfYieldsOlderRevisionThenStops(t *testing.T) {
	root, bs, _ := newTestRoot(t)
	ctx := context.Background()

	root, err := root.Write(ctx, []string{"f.txt"}, []byte("rev0"), 1000)
	require.NoError(t, err)

	parentSegs, name, err := splitPath([]string{"f.txt"})
	require.NoError(t, err)
	pn, err := GetPathNodes(ctx, bs, root.Forest, root.Setup, root.Dir, parentSegs)
	require.NoError(t, err)
	ref, ok := pn.Tail.Lookup(name)
	require.True(t, ok)
	node, err := LoadNode(ctx, bs, root.Forest, root.Setup, ref)
	require.NoError(t, err)
	pastRatchet := node.Header().Ratchet

	root, err = root.Write(ctx, []string{"f.txt"}, []byte("rev1"), 1001)
	require.NoError(t, err)

	it, err := PreviousOf(ctx, bs, root.Forest, root.Setup, root.Dir, []string{"f.txt"}, pastRatchet, false, 100)
	require.NoError(t, err)

	got, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.IsFile())
	content, err := ReadContent(ctx, bs, root.Forest, root.Setup, got.File)
	require.NoError(t, err)
	require.Equal(t, []byte("rev0"), content)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok, "previous_of must stop once the anchor revision has been yielded")
}

func TestPreviousOfAcrossMultipleRevisions(t *testing.T) {
	root, bs, _ := newTestRoot(t)
	ctx := context.Background()

	root, err := root.Write(ctx, []string{"f.txt"}, []byte("rev0"), 1000)
	require.NoError(t, err)
	parentSegs, name, err := splitPath([]string{"f.txt"})
	require.NoError(t, err)
	pn, err := GetPathNodes(ctx, bs, root.Forest, root.Setup, root.Dir, parentSegs)
	require.NoError(t, err)
	ref, ok := pn.Tail.Lookup(name)
	require.True(t, ok)
	node, err := LoadNode(ctx, bs, root.Forest, root.Setup, ref)
	require.NoError(t, err)
	pastRatchet := node.Header().Ratchet

	root, err = root.Write(ctx, []string{"f.txt"}, []byte("rev1"), 1001)
	require.NoError(t, err)
	root, err = root.Write(ctx, []string{"f.txt"}, []byte("rev2"), 1002)
	require.NoError(t, err)

	it, err := PreviousOf(ctx, bs, root.Forest, root.Setup, root.Dir, []string{"f.txt"}, pastRatchet, false, 100)
	require.NoError(t, err)

	var contents []string
	for {
		node, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		c, err := ReadContent(ctx, bs, root.Forest, root.Setup, node.File)
		require.NoError(t, err)
		contents = append(contents, string(c))
	}
	require.Equal(t, []string{"rev1", "rev0"}, contents)
}

func TestPreviousOfUnknownPathFails(t *testing.T) {
	root, bs, _ := newTestRoot(t)
	ctx := context.Background()

	_, err := PreviousOf(ctx, bs, root.Forest, root.Setup, root.Dir, []string{"nope.txt"}, ratchet.Zero([32]byte{}), false, 10)
	require.Error(t, err)
}
