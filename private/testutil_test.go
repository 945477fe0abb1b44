package private

import (
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private/forest"
)

func mustCID(t *testing.T, seed byte) cid.Cid {
	t.Helper()
	hash, err := mh.Sum([]byte{seed}, mh.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, hash)
}

func newEmptyForestForTest(setup nameaccumulator.Setup) *forest.Forest {
	return forest.New(setup)
}
