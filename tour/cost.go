package tour

import (
	"math"

	"github.com/veloplan/veloroute/costmatrix"
)

// roundScale stabilizes returned costs to 1e-9 absolute precision so results
// are bit-stable across platforms without affecting optimality decisions.
const roundScale = 1e9

func round1e9(x float64) float64 {
	return math.Round(x*roundScale) / roundScale
}

// Cost returns the closed-cycle cost of order over m, including the implicit
// closing edge order[n-1] → order[0].
//
// Contract: order must be a permutation of {0..m.N()-1}; violations return
// ErrBadPermutation / ErrNilMatrix.
//
// Complexity: O(n).
func Cost(m *costmatrix.Matrix, order []int) (float64, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}
	n := m.N()
	if err := ValidatePermutation(order, n); err != nil {
		return 0, err
	}

	var (
		w   = m.Raw()
		sum float64
		k   int
	)
	for k = 0; k < n; k++ {
		sum += w[order[k]*n+order[(k+1)%n]]
	}

	return round1e9(sum), nil
}

// ValidatePermutation checks that order is a permutation of {0..n-1} of
// length n. One O(n) marker slice, no other allocations.
//
// Complexity: O(n).
func ValidatePermutation(order []int, n int) error {
	if n <= 0 || len(order) != n {
		return ErrBadPermutation
	}
	seen := make([]bool, n)

	var (
		k int
		v int
	)
	for k = 0; k < n; k++ {
		v = order[k]
		if v < 0 || v >= n {
			return ErrBadPermutation
		}
		if seen[v] {
			return ErrBadPermutation
		}
		seen[v] = true
	}

	return nil
}

// rotateToStart cyclically shifts order in place so order[0] == start.
// start must be present (order is a permutation).
//
// Complexity: O(n) time, O(n) scratch.
func rotateToStart(order []int, start int) {
	n := len(order)

	var pos int
	for pos = 0; pos < n; pos++ {
		if order[pos] == start {
			break
		}
	}
	if pos == 0 || pos == n {
		return
	}

	rotated := make([]int, n)
	var k int
	for k = 0; k < n; k++ {
		rotated[k] = order[(pos+k)%n]
	}
	copy(order, rotated)
}
