package tour

import (
	"math"

	"github.com/veloplan/veloroute/costmatrix"
)

// Construct produces the initial visiting order for m.
//
// Dispatch: Held–Karp exact DP when n <= opts.ExactThreshold (optimal, but
// O(n²·2ⁿ)); deterministic nearest-neighbor otherwise. Either way the output
// is a valid permutation starting at opts.Start with its closed-cycle cost.
// Optimality is only guaranteed on the exact path; the heuristic merely gives
// local search a reasonable seed.
//
// Errors: ErrNilMatrix, ErrTooFewStations (n < 3), ErrStartOutOfRange,
// ErrBadOptions, plus costmatrix sentinels if m violates its invariant.
func Construct(m *costmatrix.Matrix, opts Options) (Result, error) {
	if err := validateOptions(opts); err != nil {
		return Result{}, err
	}
	if m == nil {
		return Result{}, ErrNilMatrix
	}
	if err := m.Validate(); err != nil {
		return Result{}, err
	}

	n := m.N()
	if n < 3 {
		return Result{}, ErrTooFewStations
	}
	if opts.Start < 0 || opts.Start >= n {
		return Result{}, ErrStartOutOfRange
	}

	var order []int
	if n <= opts.ExactThreshold {
		order = heldKarp(m.Raw(), n, opts.Start)
	} else {
		order = nearestNeighbor(m.Raw(), n, opts.Start)
	}

	cost, err := Cost(m, order)
	if err != nil {
		return Result{}, err
	}

	return Result{Order: order, Cost: cost}, nil
}

// nearestNeighbor builds a tour greedily: from the current station, always
// move to the cheapest unvisited one, breaking ties toward the smallest index
// for determinism.
//
// Complexity: O(n²) time, O(n) space.
func nearestNeighbor(w []float64, n, start int) []int {
	var (
		order   = make([]int, 0, n)
		visited = make([]bool, n)
		cur     = start
		k, j    int
		best    int
		bestC   float64
	)

	order = append(order, start)
	visited[start] = true

	for k = 1; k < n; k++ {
		best = -1
		bestC = math.Inf(1)
		for j = 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if c := w[cur*n+j]; c < bestC {
				best = j
				bestC = c
			}
		}
		order = append(order, best)
		visited[best] = true
		cur = best
	}

	return order
}

// heldKarp solves the instance exactly by dynamic programming over vertex
// subsets: dp[mask][j] is the cheapest path that starts at start, visits
// exactly the vertices in mask, and ends at j.
//
// Complexity: O(n²·2ⁿ) time, O(n·2ⁿ) memory.
func heldKarp(w []float64, n, start int) []int {
	var (
		size   = 1 << n
		dp     = make([]float64, size*n) // dp[mask*n+j]
		parent = make([]int, size*n)
		mask   int
		j, k   int
	)
	for k = range dp {
		dp[k] = math.Inf(1)
		parent[k] = -1
	}

	startBit := 1 << start
	dp[startBit*n+start] = 0

	var (
		prev int
		cand float64
	)
	for mask = 0; mask < size; mask++ {
		if mask&startBit == 0 {
			continue
		}
		for j = 0; j < n; j++ {
			if j == start || mask&(1<<j) == 0 {
				continue
			}
			prev = mask ^ (1 << j)
			for k = 0; k < n; k++ {
				if prev&(1<<k) == 0 {
					continue
				}
				if cand = dp[prev*n+k] + w[k*n+j]; cand < dp[mask*n+j] {
					dp[mask*n+j] = cand
					parent[mask*n+j] = k
				}
			}
		}
	}

	// Close the cycle back to start.
	var (
		full = size - 1
		best = math.Inf(1)
		last = -1
	)
	for j = 0; j < n; j++ {
		if j == start {
			continue
		}
		if cand = dp[full*n+j] + w[j*n+start]; cand < best {
			best = cand
			last = j
		}
	}

	// Reconstruct from the parent table; the matrix invariant (finite, square)
	// guarantees a closing vertex exists.
	order := make([]int, n)
	order[0] = start
	mask = full
	j = last
	for k = n - 1; k >= 1; k-- {
		order[k] = j
		prev = parent[mask*n+j]
		mask ^= 1 << j
		j = prev
	}

	return order
}
