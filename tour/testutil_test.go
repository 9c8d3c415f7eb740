package tour_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veloplan/veloroute/costmatrix"
)

// euclid builds a symmetric matrix of Euclidean distances between plane
// points. Plane geometry keeps expected tours human-checkable.
func euclid(t *testing.T, pts [][2]float64) *costmatrix.Matrix {
	t.Helper()

	n := len(pts)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			dx := pts[i][0] - pts[j][0]
			dy := pts[i][1] - pts[j][1]
			rows[i][j] = math.Hypot(dx, dy)
		}
	}

	m, err := costmatrix.FromRows(rows)
	require.NoError(t, err)

	return m
}

// mustMatrix wraps FromRows for literal fixtures.
func mustMatrix(t *testing.T, rows [][]float64) *costmatrix.Matrix {
	t.Helper()
	m, err := costmatrix.FromRows(rows)
	require.NoError(t, err)

	return m
}

// bruteForceBest returns the optimal closed-cycle cost with start pinned at 0,
// by exhaustive enumeration. Only usable for tiny n.
func bruteForceBest(t *testing.T, m *costmatrix.Matrix) float64 {
	t.Helper()

	var (
		n    = m.N()
		w    = m.Raw()
		rest = make([]int, 0, n-1)
		best = math.Inf(1)
	)
	for v := 1; v < n; v++ {
		rest = append(rest, v)
	}

	var permute func(k int)
	permute = func(k int) {
		if k == len(rest) {
			cost := w[0*n+rest[0]]
			for i := 0; i+1 < len(rest); i++ {
				cost += w[rest[i]*n+rest[i+1]]
			}
			cost += w[rest[len(rest)-1]*n+0]
			if cost < best {
				best = cost
			}
			return
		}
		for i := k; i < len(rest); i++ {
			rest[k], rest[i] = rest[i], rest[k]
			permute(k + 1)
			rest[k], rest[i] = rest[i], rest[k]
		}
	}
	permute(0)

	return best
}

// unitSquare: four corners whose only optimal tour is the perimeter.
// The crossing (diagonal) order 0,2,1,3 costs 2+2√2 vs perimeter 4.
var unitSquare = [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
