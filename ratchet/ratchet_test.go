package ratchet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

func TestIncAdvancesAndChangesKey(t *testing.T) {
	r0 := Zero(seed(1))
	r1 := r0.Inc()

	require.False(t, r0.Equal(r1))
	require.NotEqual(t, r0.DeriveKey(), r1.DeriveKey())
}

func TestIncIsDeterministic(t *testing.T) {
	r0 := Zero(seed(2))
	a := r0.Inc().Inc().Inc()
	b := r0.Inc().Inc().Inc()
	require.True(t, a.Equal(b))
}

func TestSmallWrapAdvancesMedium(t *testing.T) {
	r := Zero(seed(3))
	// Walk one full small-stratum cycle (256 increments) and confirm the
	// medium stratum advances and its counter moves from 0 to 1.
	prevMedium := r.Medium
	for i := 0; i < counterWrap; i++ {
		r = r.Inc()
	}
	require.NotEqual(t, prevMedium, r.Medium)
	require.Equal(t, uint8(1), r.MediumCounter)
}

func TestPreviousIterOrderAndCount(t *testing.T) {
	r0 := Zero(seed(4))
	n := 5
	rn := r0
	for i := 0; i < n; i++ {
		rn = rn.Inc()
	}

	got, err := PreviousIter(r0, rn, n)
	require.NoError(t, err)
	require.Len(t, got, n-1)

	// got should be r_{n-1}, r_{n-2}, ..., r_1 (newest first).
	want := make([]Ratchet, 0, n-1)
	cur := r0
	for i := 1; i < n; i++ {
		cur = cur.Inc()
		want = append(want, cur)
	}
	for i := 0; i < len(want); i++ {
		require.True(t, got[i].Equal(want[len(want)-1-i]))
	}
}

func TestPreviousIterBudgetExceeded(t *testing.T) {
	r0 := Zero(seed(5))
	n := 5
	rn := r0
	for i := 0; i < n; i++ {
		rn = rn.Inc()
	}

	_, err := PreviousIter(r0, rn, n-2)
	require.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestSnapshotKeyHidesEarlierTemporalKeys(t *testing.T) {
	r0 := Zero(seed(6))
	r1 := r0.Inc()

	// The snapshot key is a one-way function of the temporal key; it must
	// differ from the raw temporal key and from any other revision's.
	require.NotEqual(t, r1.DeriveKey(), r1.SnapshotKey())
	require.NotEqual(t, r0.SnapshotKey(), r1.SnapshotKey())
}
