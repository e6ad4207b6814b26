// coinselect.go - Deterministic input-note selection.
//
// Policy: minimize the number of selected notes first, then the overshoot
// over the target, with ties broken by the lexicographically smallest
// ascending position list. The same spendable set and target always select
// the same notes.

package wallet

import (
	"math"
	"math/bits"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// spendableNote is an owned, unspent note with its decrypted value and the
// nullifier it will publish when spent.
type spendableNote struct {
	note      Note
	value     uint64
	blinder   fr.Element
	nullifier fr.Element
}

// pickNotes selects a subset of the spendable set covering target. Fails
// with ErrInsufficientFunds when the whole set cannot cover it; the check on
// the total short-circuits before any subset search.
func pickNotes(notes []spendableNote, target uint64) ([]spendableNote, error) {
	var total uint64
	for i := range notes {
		total = satAdd(total, notes[i].value)
	}
	if total < target {
		return nil, ErrInsufficientFunds
	}

	sorted := make([]spendableNote, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].note.Pos < sorted[j].note.Pos })

	for k := 1; k < len(sorted); k++ {
		if sel := bestSubset(sorted, k, target); sel != nil {
			return sel, nil
		}
	}
	return sorted, nil
}

// bestSubset finds the size-k subset with sum >= target and minimal
// overshoot, or nil if no size-k subset covers the target. Candidates are
// visited in lexicographic position order and only strictly smaller sums
// displace the incumbent, so the first minimum found is the tie-break
// winner.
func bestSubset(notes []spendableNote, k int, target uint64) []spendableNote {
	n := len(notes)

	// suffixMax[i] is the largest value in notes[i:]; used to prune
	// branches that cannot reach the target.
	suffixMax := make([]uint64, n+1)
	for i := n - 1; i >= 0; i-- {
		suffixMax[i] = suffixMax[i+1]
		if notes[i].value > suffixMax[i] {
			suffixMax[i] = notes[i].value
		}
	}

	var best []int
	var bestSum uint64
	idx := make([]int, 0, k)

	var walk func(start int, sum uint64)
	walk = func(start int, sum uint64) {
		if best != nil && bestSum == target {
			return
		}
		if len(idx) == k {
			if sum >= target && (best == nil || sum < bestSum) {
				best = append([]int(nil), idx...)
				bestSum = sum
			}
			return
		}
		need := k - len(idx)
		for i := start; i <= n-need; i++ {
			if satAdd(sum, satMul(uint64(need), suffixMax[i])) < target {
				break
			}
			idx = append(idx, i)
			walk(i+1, satAdd(sum, notes[i].value))
			idx = idx[:len(idx)-1]
		}
	}
	walk(0, 0)

	if best == nil {
		return nil
	}
	sel := make([]spendableNote, k)
	for i, j := range best {
		sel[i] = notes[j]
	}
	return sel
}

// satAdd and satMul clamp at the maximum uint64 so sums compared against a
// target never wrap past it.
func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
