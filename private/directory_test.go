package private

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

func TestWithEntryAddsAndSorts(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	d, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)

	d = WithEntry(d, "zeta", PrivateRef{}, 1001)
	d = WithEntry(d, "alpha", PrivateRef{}, 1002)

	require.Len(t, d.Entries, 2)
	require.Equal(t, "alpha", d.Entries[0].Name)
	require.Equal(t, "zeta", d.Entries[1].Name)
}

func TestWithEntryReplacesExisting(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	d, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)

	refA := PrivateRef{ContentCID: mustCID(t, 1)}
	refB := PrivateRef{ContentCID: mustCID(t, 2)}

	d = WithEntry(d, "f", refA, 1001)
	d = WithEntry(d, "f", refB, 1002)

	require.Len(t, d.Entries, 1)
	got, ok := d.Lookup("f")
	require.True(t, ok)
	require.True(t, got.ContentCID.Equals(refB.ContentCID))
}

func TestWithoutEntryRemovesAndReportsExistence(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	d, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)
	d = WithEntry(d, "f", PrivateRef{}, 1001)

	d2, existed := WithoutEntry(d, "f", 1002)
	require.True(t, existed)
	require.Empty(t, d2.Entries)

	_, existed = WithoutEntry(d2, "f", 1003)
	require.False(t, existed)
}

func TestStoreThenLoadDirectoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()

	d, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)
	d = WithEntry(d, "child", PrivateRef{ContentCID: mustCID(t, 7)}, 1001)

	fo := newEmptyForestForTest(setup)
	fo, contentCID, err := storeDirectory(ctx, bs, fo, setup, d)
	require.NoError(t, err)

	ref := privateRefFromHeader(setup, d.Header, contentCID)
	node, err := LoadNode(ctx, bs, fo, setup, ref)
	require.NoError(t, err)
	require.True(t, node.IsDir())
	require.Len(t, node.Dir.Entries, 1)
	require.Equal(t, "child", node.Dir.Entries[0].Name)
}

func TestPrepareNextRevisionBumpsRatchetOnceStored(t *testing.T) {
	ctx := context.Background()
	bs := blockstore.NewMemBlockstore()
	setup := nameaccumulator.TrustedSetup()

	d, err := NewDirectory(setup, nil, 1000)
	require.NoError(t, err)
	before := d.Header.Ratchet

	fo := newEmptyForestForTest(setup)
	fo, _, err = storeDirectory(ctx, bs, fo, setup, d)
	require.NoError(t, err)

	d2 := WithEntry(d, "f", PrivateRef{}, 1001)
	require.NotEqual(t, before, d2.Header.Ratchet)
	require.Nil(t, d2.PersistedAs)
}
