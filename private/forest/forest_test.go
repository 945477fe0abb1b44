package forest

import (
	"crypto/rand"
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/nameaccumulator"
)

func randomLabel(t *testing.T, setup nameaccumulator.Setup) Label {
	t.Helper()
	seg, err := nameaccumulator.RandomSegment(rand.Reader)
	require.NoError(t, err)
	acc := nameaccumulator.Empty(setup).Add(seg, setup)
	return Label{Accumulator: acc}
}

func randomCID(t *testing.T, seed byte) cid.Cid {
	t.Helper()
	hash, err := mh.Sum([]byte{seed}, mh.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, hash)
}

func TestPutGetEncrypted(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f := New(setup)
	label := randomLabel(t, setup)
	c1 := randomCID(t, 1)

	f2 := f.PutEncrypted(label, []cid.Cid{c1})
	set, ok := f2.GetEncrypted(label.Hash())
	require.True(t, ok)
	require.True(t, set.Contains(c1))
}

func TestPutEncryptedUnionsConcurrentCIDs(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f := New(setup)
	label := randomLabel(t, setup)
	c1 := randomCID(t, 1)
	c2 := randomCID(t, 2)

	f1 := f.PutEncrypted(label, []cid.Cid{c1})
	f2 := f1.PutEncrypted(label, []cid.Cid{c2})

	set, ok := f2.GetEncrypted(label.Hash())
	require.True(t, ok)
	require.True(t, set.Contains(c1))
	require.True(t, set.Contains(c2))
}

func TestRemoveEncrypted(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f := New(setup)
	label := randomLabel(t, setup)
	c1 := randomCID(t, 1)
	f = f.PutEncrypted(label, []cid.Cid{c1})

	set, f2, removed := f.RemoveEncrypted(label.Hash())
	require.True(t, removed)
	require.True(t, set.Contains(c1))

	_, ok := f2.GetEncrypted(label.Hash())
	require.False(t, ok)
}

func TestMergeUnionsConcurrentForks(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	base := New(setup)
	label := randomLabel(t, setup)
	c1 := randomCID(t, 1)
	c2 := randomCID(t, 2)

	f1 := base.PutEncrypted(label, []cid.Cid{c1})
	f2 := base.PutEncrypted(label, []cid.Cid{c2})

	merged := f1.Merge(f2)
	set, ok := merged.GetEncrypted(label.Hash())
	require.True(t, ok)
	require.True(t, set.Contains(c1))
	require.True(t, set.Contains(c2))
}

func TestMergeIsCommutative(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	base := New(setup)
	l1 := randomLabel(t, setup)
	l2 := randomLabel(t, setup)

	f1 := base.PutEncrypted(l1, []cid.Cid{randomCID(t, 1)})
	f2 := base.PutEncrypted(l2, []cid.Cid{randomCID(t, 2)})

	ab := f1.Merge(f2)
	ba := f2.Merge(f1)

	diffs := ab.Diff(ba, 64)
	require.Empty(t, diffs)
}

func TestMergeSelfIsIdentity(t *testing.T) {
	setup := nameaccumulator.TrustedSetup()
	f := New(setup).PutEncrypted(randomLabel(t, setup), []cid.Cid{randomCID(t, 1)})

	merged := f.Merge(f)
	diffs := f.Diff(merged, 64)
	require.Empty(t, diffs)
}
