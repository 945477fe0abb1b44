package private

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

func TestNewHeaderRootHasEmptyBase(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)
	require.False(t, h.Name.AsAccumulator(setup).Equal(nameaccumulator.Empty(setup)))
}

func TestNewHeaderChildExtendsParentName(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	parent, err := newHeader(setup, nil)
	require.NoError(t, err)

	child, err := newHeader(setup, parent.NamePtr())
	require.NoError(t, err)

	require.False(t, child.Name.AsAccumulator(setup).Equal(parent.Name.AsAccumulator(setup)))
}

func TestLabelIsDeterministicGivenName(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)

	l1 := h.Label(setup)
	l2 := h.Label(setup)
	require.Equal(t, l1.Hash(), l2.Hash())
}

func TestLabelIsRevisionInvariant(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)

	before := h.RevisionLabelHash(setup)
	h.Ratchet = h.Ratchet.Inc()
	after := h.RevisionLabelHash(setup)

	require.Equal(t, before, after, "forest label must depend only on name, not ratchet generation")
}

func TestEncryptDecryptHeaderRoundTrip(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)

	block, err := encryptHeader(setup, h)
	require.NoError(t, err)

	got, err := decryptHeader(h.Ratchet.DeriveKey(), block)
	require.NoError(t, err)

	require.True(t, got.Name.AsAccumulator(setup).Equal(h.Name.AsAccumulator(setup)))
	require.True(t, got.INumber.Equal(h.INumber))
	require.Equal(t, h.Ratchet, got.Ratchet)
}

func TestDecryptHeaderWrongKeyFails(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)

	block, err := encryptHeader(setup, h)
	require.NoError(t, err)

	other, err := newHeader(setup, nil)
	require.NoError(t, err)

	_, err = decryptHeader(other.Ratchet.DeriveKey(), block)
	require.Error(t, err)
}

func TestShardLabelDistinctPerIndex(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	h, err := newHeader(setup, nil)
	require.NoError(t, err)

	revName, err := revisionName(setup, h.Name, h.Ratchet.SnapshotKey())
	require.NoError(t, err)

	l0, err := shardLabel(setup, revName, h.Ratchet.SnapshotKey(), 0)
	require.NoError(t, err)
	l1, err := shardLabel(setup, revName, h.Ratchet.SnapshotKey(), 1)
	require.NoError(t, err)

	require.NotEqual(t, l0.Hash(), l1.Hash())
}
