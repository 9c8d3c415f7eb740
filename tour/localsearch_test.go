package tour_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloplan/veloroute/tour"
)

func TestOptimize_SquareUncrossesDiagonals(t *testing.T) {
	m := euclid(t, unitSquare)
	crossing := []int{0, 2, 1, 3} // both diagonals: strictly worse than the perimeter

	for _, strategy := range []tour.Strategy{tour.FirstImprovement, tour.BestImprovement} {
		opts := tour.DefaultOptions()
		opts.Strategy = strategy

		res, err := tour.Optimize(m, crossing, opts)
		require.NoError(t, err)

		assert.Equal(t, tour.Converged, res.Termination)
		assert.InDelta(t, 4.0, res.Cost, 1e-9, "must reach the perimeter order")
		require.NoError(t, tour.ValidatePermutation(res.Order, 4))
		assert.Equal(t, 0, res.Order[0], "position 0 stays pinned")
	}
}

func TestOptimize_NeverWorsens(t *testing.T) {
	pts := [][2]float64{
		{0, 0}, {4, 1}, {1, 5}, {6, 3}, {2, 2}, {5, 6}, {3, 0}, {0, 4},
	}
	m := euclid(t, pts)

	// A deliberately bad input order.
	in := []int{0, 5, 1, 7, 3, 6, 2, 4}
	inCost, err := tour.Cost(m, in)
	require.NoError(t, err)

	res, err := tour.Optimize(m, in, tour.DefaultOptions())
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Cost, inCost)
	require.NoError(t, tour.ValidatePermutation(res.Order, len(pts)))

	// Reported cost must agree with a full recompute of the final order.
	recomputed, err := tour.Cost(m, res.Order)
	require.NoError(t, err)
	assert.InDelta(t, recomputed, res.Cost, 1e-6)
}

func TestOptimize_IdempotentAtConvergence(t *testing.T) {
	pts := [][2]float64{{0, 0}, {4, 1}, {1, 5}, {6, 3}, {2, 2}, {5, 6}}
	m := euclid(t, pts)

	first, err := tour.Optimize(m, []int{0, 3, 1, 5, 2, 4}, tour.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, tour.Converged, first.Termination)

	second, err := tour.Optimize(m, first.Order, tour.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, tour.Converged, second.Termination)
	assert.Equal(t, first.Order, second.Order, "no further improving move may exist")
	assert.Equal(t, first.Cost, second.Cost)
	assert.Equal(t, 1, second.Sweeps, "re-run must converge in a single sweep")
}

func TestOptimize_ZeroSweepBudget(t *testing.T) {
	m := euclid(t, unitSquare)
	in := []int{0, 2, 1, 3}
	inCost, err := tour.Cost(m, in)
	require.NoError(t, err)

	opts := tour.DefaultOptions()
	opts.MaxSweeps = 0

	res, err := tour.Optimize(m, in, opts)
	require.NoError(t, err)

	assert.Equal(t, tour.BudgetExhausted, res.Termination, "0 sweeps is a budget stop, not convergence")
	assert.Equal(t, in, res.Order, "input order must come back unchanged")
	assert.Equal(t, inCost, res.Cost)
	assert.Zero(t, res.Sweeps)
}

func TestOptimize_BudgetCheckedAtSweepBoundaries(t *testing.T) {
	// Enough stations that one sweep cannot finish the job; a 1-sweep budget
	// must stop early and say so.
	pts := make([][2]float64, 14)
	for i := range pts {
		pts[i] = [2]float64{float64((i * 5) % 13), float64((i * 11) % 7)}
	}
	m := euclid(t, pts)
	in := []int{0, 7, 2, 9, 4, 11, 6, 13, 8, 1, 10, 3, 12, 5}

	opts := tour.DefaultOptions()
	opts.MaxSweeps = 1

	res, err := tour.Optimize(m, in, opts)
	require.NoError(t, err)
	require.NoError(t, tour.ValidatePermutation(res.Order, len(pts)))
	assert.Equal(t, 1, res.Sweeps)

	if res.Termination == tour.BudgetExhausted {
		// Unlimited budget from the same input must do at least as well.
		full, err := tour.Optimize(m, in, tour.DefaultOptions())
		require.NoError(t, err)
		assert.LessOrEqual(t, full.Cost, res.Cost)
	}
}

func TestOptimize_TriangleConvergesImmediately(t *testing.T) {
	m := euclid(t, [][2]float64{{0, 0}, {1, 0}, {0, 1}})
	in := []int{0, 2, 1}

	res, err := tour.Optimize(m, in, tour.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, tour.Converged, res.Termination)
	assert.Equal(t, in, res.Order)
	assert.Zero(t, res.Sweeps)
}

func TestOptimize_TooFewStations(t *testing.T) {
	m := mustMatrix(t, [][]float64{{0, 1}, {1, 0}})
	_, err := tour.Optimize(m, []int{0, 1}, tour.DefaultOptions())
	require.ErrorIs(t, err, tour.ErrTooFewStations)
}

func TestOptimize_RejectsBadPermutation(t *testing.T) {
	m := euclid(t, unitSquare)

	for _, bad := range [][]int{
		{0, 1, 2},       // wrong length
		{0, 1, 2, 2},    // duplicate
		{0, 1, 2, 4},    // out of range
		{-1, 1, 2, 3},   // negative
		{0, 0, 0, 0},    // degenerate
	} {
		_, err := tour.Optimize(m, bad, tour.DefaultOptions())
		require.ErrorIs(t, err, tour.ErrBadPermutation, "order %v", bad)
	}
}

func TestOptimize_AsymmetricMonotonicAndConsistent(t *testing.T) {
	// Directed costs: forward arcs cheap, backward arcs expensive. The naive
	// symmetric 2-opt delta is wrong here; the directional delta must keep
	// every accepted move genuinely improving.
	rows := [][]float64{
		{0, 1, 7, 6, 3},
		{9, 0, 1, 8, 5},
		{4, 8, 0, 1, 9},
		{7, 3, 9, 0, 1},
		{1, 6, 4, 8, 0},
	}
	m := mustMatrix(t, rows)
	require.False(t, m.IsSymmetric())

	in := []int{0, 3, 1, 4, 2}
	inCost, err := tour.Cost(m, in)
	require.NoError(t, err)

	for _, strategy := range []tour.Strategy{tour.FirstImprovement, tour.BestImprovement} {
		opts := tour.DefaultOptions()
		opts.Strategy = strategy

		res, err := tour.Optimize(m, in, opts)
		require.NoError(t, err)

		assert.LessOrEqual(t, res.Cost, inCost)
		require.NoError(t, tour.ValidatePermutation(res.Order, 5))

		recomputed, err := tour.Cost(m, res.Order)
		require.NoError(t, err)
		assert.InDelta(t, recomputed, res.Cost, 1e-6,
			"incremental deltas must agree with a full recompute")
		assert.GreaterOrEqual(t, res.Cost, bruteForceBest(t, m)-1e-9,
			"local search cannot beat the optimum")
	}
}

func TestOptimize_AsymmetricDirectedRing(t *testing.T) {
	// The directed ring 0→1→2→3→4 costs 5; any other arc costs 10.
	n := 5
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			if i == j {
				continue
			}
			if (i+1)%n == j {
				rows[i][j] = 1
			} else {
				rows[i][j] = 10
			}
		}
	}
	m := mustMatrix(t, rows)

	// The optimal ring is a fixed point: no move may touch it.
	optimal := []int{0, 1, 2, 3, 4}
	res, err := tour.Optimize(m, optimal, tour.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, tour.Converged, res.Termination)
	assert.Equal(t, optimal, res.Order)
	assert.InDelta(t, 5.0, res.Cost, 1e-9)

	// A displaced stop must be strictly improved (an Or-opt relocation back
	// into the ring exists), and never below the directed optimum.
	in := []int{0, 1, 3, 2, 4}
	inCost, err := tour.Cost(m, in)
	require.NoError(t, err)

	res, err = tour.Optimize(m, in, tour.DefaultOptions())
	require.NoError(t, err)
	assert.Less(t, res.Cost, inCost)
	assert.GreaterOrEqual(t, res.Cost, 5.0-1e-9)
}

func TestOptimize_LineInstanceReachesOptimum(t *testing.T) {
	// Five points on a line plus one slightly off it, visited out of order.
	// Tiny enough to compare against exhaustive enumeration.
	pts := [][2]float64{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {1.5, 0.1}}
	m := euclid(t, pts)

	in := []int{0, 1, 2, 3, 5, 4}
	res, err := tour.Optimize(m, in, tour.DefaultOptions())
	require.NoError(t, err)

	best := bruteForceBest(t, m)
	assert.InDelta(t, best, res.Cost, 1e-9, "line instance must reach the optimum")
}

func TestOptimize_LargeEpsBlocksSmallGains(t *testing.T) {
	m := euclid(t, unitSquare)
	in := []int{0, 2, 1, 3}

	opts := tour.DefaultOptions()
	opts.Eps = 10 // larger than any achievable gain on the unit square

	res, err := tour.Optimize(m, in, opts)
	require.NoError(t, err)
	assert.Equal(t, tour.Converged, res.Termination)
	assert.Equal(t, in, res.Order, "no move clears a 10-unit improvement bar")
}

func TestOptimize_InputOrderNotMutated(t *testing.T) {
	m := euclid(t, unitSquare)
	in := []int{0, 2, 1, 3}
	keep := append([]int(nil), in...)

	_, err := tour.Optimize(m, in, tour.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, keep, in)
}

func TestOptimize_ConvergedCostIsLocalOptimum(t *testing.T) {
	// After convergence every single 2-opt reversal must be non-improving.
	pts := [][2]float64{{0, 0}, {4, 1}, {1, 5}, {6, 3}, {2, 2}, {5, 6}, {3, 7}}
	m := euclid(t, pts)

	res, err := tour.Optimize(m, []int{0, 6, 1, 5, 2, 4, 3}, tour.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, tour.Converged, res.Termination)

	n := len(pts)
	for i := 1; i <= n-2; i++ {
		for k := i + 1; k <= n-1; k++ {
			cand := append([]int(nil), res.Order...)
			for a, b := i, k; a < b; a, b = a+1, b-1 {
				cand[a], cand[b] = cand[b], cand[a]
			}
			c, err := tour.Cost(m, cand)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c, res.Cost-1e-9,
				"reversal [%d..%d] would still improve a converged tour", i, k)
		}
	}
}

func TestTermination_String(t *testing.T) {
	assert.Equal(t, "converged", tour.Converged.String())
	assert.Equal(t, "budget-exhausted", tour.BudgetExhausted.String())
	assert.Equal(t, "unknown", tour.Termination(0).String())
}

func TestOptimize_DisabledOrOptStillConverges(t *testing.T) {
	m := euclid(t, unitSquare)
	opts := tour.DefaultOptions()
	opts.OrOptMaxLen = 0

	res, err := tour.Optimize(m, []int{0, 2, 1, 3}, opts)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Cost, 1e-9, "2-opt alone uncrosses the square")
}

func TestCost_ClosedCycle(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, 1, 4},
		{2, 0, 1},
		{1, 3, 0},
	})
	c, err := tour.Cost(m, []int{0, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1+1+1, c, 1e-12, "includes the closing edge 2→0")

	c, err = tour.Cost(m, []int{0, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 4+3+2, c, 1e-12)
}

func TestCost_Errors(t *testing.T) {
	m := euclid(t, unitSquare)

	_, err := tour.Cost(nil, []int{0, 1, 2, 3})
	require.ErrorIs(t, err, tour.ErrNilMatrix)

	_, err = tour.Cost(m, []int{0, 1, 2})
	require.ErrorIs(t, err, tour.ErrBadPermutation)
}

func TestOptimize_RandomInstancesStayConsistent(t *testing.T) {
	// A couple of scattered instances; checks are structural (permutation,
	// monotonicity, recompute agreement), not geometric.
	layouts := [][][2]float64{
		{{0, 0}, {2, 9}, {7, 1}, {4, 6}, {9, 9}, {1, 3}, {8, 5}, {3, 2}, {6, 8}},
		{{0, 0}, {1, 1}, {2, 0.5}, {3, 1.5}, {4, 0.2}, {5, 1.8}, {6, 0.9}},
	}
	for li, pts := range layouts {
		m := euclid(t, pts)
		n := len(pts)

		in := make([]int, n)
		for i := range in {
			in[i] = (i * 5) % n // 5 coprime with 7 and 9: a valid shuffle
		}
		require.NoError(t, tour.ValidatePermutation(in, n))
		require.Equal(t, 0, in[0])

		inCost, err := tour.Cost(m, in)
		require.NoError(t, err)

		res, err := tour.Optimize(m, in, tour.DefaultOptions())
		require.NoError(t, err, "layout %d", li)
		require.NoError(t, tour.ValidatePermutation(res.Order, n))
		assert.LessOrEqual(t, res.Cost, inCost)
		assert.Equal(t, tour.Converged, res.Termination)

		rec, err := tour.Cost(m, res.Order)
		require.NoError(t, err)
		assert.InDelta(t, rec, res.Cost, 1e-6)
	}
}
