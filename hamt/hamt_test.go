package hamt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type strKey string

func (s strKey) Bytes() []byte { return []byte(s) }

func unionInts(a, b int) int { return a | b }

func TestSetGetRoundTrip(t *testing.T) {
	var root *Node[strKey, int]
	root = Set(root, strKey("a"), 1)

	v, ok := Get(root, strKey("a"))
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestSetOverwrites(t *testing.T) {
	var root *Node[strKey, int]
	root = Set(root, strKey("a"), 1)
	root = Set(root, strKey("a"), 2)

	v, ok := Get(root, strKey("a"))
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestSetThenRemove(t *testing.T) {
	var root *Node[strKey, int]
	root = Set(root, strKey("a"), 1)
	root, removed := Remove(root, strKey("a"))
	require.True(t, removed)

	_, ok := Get(root, strKey("a"))
	require.False(t, ok)
}

func TestManyKeysRoundTrip(t *testing.T) {
	var root *Node[strKey, int]
	n := 500
	for i := 0; i < n; i++ {
		root = Set(root, strKey(fmt.Sprintf("key-%d", i)), i)
	}
	for i := 0; i < n; i++ {
		v, ok := Get(root, strKey(fmt.Sprintf("key-%d", i)))
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestRemoveCollapsesButNotRoot(t *testing.T) {
	var root *Node[strKey, int]
	root = Set(root, strKey("only-key"), 42)
	require.NotNil(t, root)

	root, removed := Remove(root, strKey("only-key"))
	require.True(t, removed)
	require.NotNil(t, root) // root stays a *Node, never collapses away
	require.Equal(t, uint16(0), root.Bitmap)
}

func TestGetByHash(t *testing.T) {
	var root *Node[strKey, int]
	key := strKey("hello")
	root = Set(root, key, 7)

	h := Hash[strKey](key)
	pairs, ok := GetByHash(root, h)
	require.True(t, ok)
	require.Len(t, pairs, 1)
	require.Equal(t, 7, pairs[0].Value)
}

func TestMergeUnionsDisjointKeys(t *testing.T) {
	var a, b *Node[strKey, int]
	a = Set(a, strKey("x"), 1)
	b = Set(b, strKey("y"), 2)

	merged := Merge(a, b, unionInts)
	vx, ok := Get(merged, strKey("x"))
	require.True(t, ok)
	require.Equal(t, 1, vx)
	vy, ok := Get(merged, strKey("y"))
	require.True(t, ok)
	require.Equal(t, 2, vy)
}

func TestMergeCombinesSharedKeys(t *testing.T) {
	var a, b *Node[strKey, int]
	a = Set(a, strKey("x"), 1)
	b = Set(b, strKey("x"), 2)

	merged := Merge(a, b, unionInts)
	v, ok := Get(merged, strKey("x"))
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestMergeIsCommutative(t *testing.T) {
	var a, b *Node[strKey, int]
	for i := 0; i < 50; i++ {
		a = Set(a, strKey(fmt.Sprintf("a-%d", i)), i)
	}
	for i := 0; i < 50; i++ {
		b = Set(b, strKey(fmt.Sprintf("b-%d", i)), i*2)
	}
	// overlapping key on both sides
	a = Set(a, strKey("shared"), 10)
	b = Set(b, strKey("shared"), 20)

	ab := Merge(a, b, unionInts)
	ba := Merge(b, a, unionInts)

	diffs := Diff(ab, ba, MaxDepth, func(x, y int) bool { return x == y })
	require.Empty(t, diffs)
}

func TestMergeSelfIsIdentity(t *testing.T) {
	var a *Node[strKey, int]
	a = Set(a, strKey("x"), 1)
	a = Set(a, strKey("y"), 2)

	merged := Merge(a, a, unionInts)
	diffs := Diff(a, merged, MaxDepth, func(x, y int) bool { return x == y })
	require.Empty(t, diffs)
}

func TestDiffDetectsAddRemoveModify(t *testing.T) {
	var a, b *Node[strKey, int]
	a = Set(a, strKey("same"), 1)
	a = Set(a, strKey("removed"), 2)
	a = Set(a, strKey("changed"), 3)

	b = Set(b, strKey("same"), 1)
	b = Set(b, strKey("changed"), 99)
	b = Set(b, strKey("added"), 4)

	diffs := Diff(a, b, MaxDepth, func(x, y int) bool { return x == y })

	byKey := map[string]DiffEntry[strKey, int]{}
	for _, d := range diffs {
		byKey[string(d.Key)] = d
	}

	require.Equal(t, DiffRemove, byKey["removed"].Type)
	require.Equal(t, DiffModify, byKey["changed"].Type)
	require.Equal(t, DiffAdd, byKey["added"].Type)
	_, stillThere := byKey["same"]
	require.False(t, stillThere)
}

func TestDiffIdenticalSharedSubtreeIsEmpty(t *testing.T) {
	var a *Node[strKey, int]
	a = Set(a, strKey("x"), 1)
	b := a // identical persistent value, shared pointer

	diffs := Diff(a, b, MaxDepth, func(x, y int) bool { return x == y })
	require.Empty(t, diffs)
}
