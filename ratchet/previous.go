package ratchet

import "errors"

// ErrBudgetExceeded is returned when the distance between two ratchets
// exceeds the caller-supplied search budget. Spec §4.1.
var ErrBudgetExceeded = errors.New("ratchet: budget exceeded")

// PreviousIter returns the ratchets strictly between older and newer,
// ordered newest-first: r_{new-1}, r_{new-2}, ..., r_{old+1}. Because the
// ratchet exposes no way to subtract, the only way to confirm "newer is
// older advanced by some unknown distance" is to advance copies of older
// forward until the hash chain produces newer, bounded by budget steps.
//
// Fails with ErrBudgetExceeded if newer is not reached within budget
// increments of older (this also catches the case where newer is not
// actually a descendant of older at all).
func PreviousIter(older, newer Ratchet, budget int) ([]Ratchet, error) {
	cur := older
	forward := make([]Ratchet, 0, budget)

	for i := 0; i < budget; i++ {
		cur = cur.Inc()
		if cur.Equal(newer) {
			reversed := make([]Ratchet, len(forward))
			for j, rr := range forward {
				reversed[len(forward)-1-j] = rr
			}
			return reversed, nil
		}
		forward = append(forward, cur)
	}

	return nil, ErrBudgetExceeded
}
