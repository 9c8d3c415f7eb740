package costmatrix

import "math"

// symTol is the structural tolerance for symmetry detection. It is independent
// from the local-search improvement epsilon in package tour.
const symTol = 1e-9

// Matrix is a dense square cost matrix backed by one row-major buffer.
// It is mutable during Build and treated as read-only afterwards; nothing in
// this module writes to a Matrix once it has been handed to package tour.
type Matrix struct {
	n    int
	data []float64 // len n*n, data[i*n+j] = cost(i,j)
}

// New returns an n×n zero matrix. n must be >= 1.
//
// Complexity: O(n²) zero-init.
func New(n int) (*Matrix, error) {
	if n < 1 {
		return nil, ErrBadShape
	}

	return &Matrix{n: n, data: make([]float64, n*n)}, nil
}

// N returns the matrix order.
func (m *Matrix) N() int { return m.n }

// At returns cost(i,j) with bounds checking.
//
// Complexity: O(1).
func (m *Matrix) At(i, j int) (float64, error) {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		return 0, ErrOutOfRange
	}

	return m.data[i*m.n+j], nil
}

// Set stores cost(i,j) with bounds and finiteness checking.
//
// Complexity: O(1).
func (m *Matrix) Set(i, j int, v float64) error {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		return ErrOutOfRange
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNotFinite
	}
	if v < 0 {
		return ErrNegativeCost
	}
	m.data[i*m.n+j] = v

	return nil
}

// Raw exposes the underlying row-major buffer for hot loops (tour sweeps read
// it as raw[u*n+v]). Callers must treat it as read-only.
func (m *Matrix) Raw() []float64 { return m.data }

// Validate checks the full matrix invariant in one pass:
// zero diagonal, every entry finite and non-negative.
//
// Complexity: O(n²).
func (m *Matrix) Validate() error {
	var (
		i, j int
		v    float64
	)
	for i = 0; i < m.n; i++ {
		for j = 0; j < m.n; j++ {
			v = m.data[i*m.n+j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNotFinite
			}
			if v < 0 {
				return ErrNegativeCost
			}
			if i == j && v != 0 {
				return ErrNonZeroDiagonal
			}
		}
	}

	return nil
}

// IsSymmetric reports whether |cost(i,j) − cost(j,i)| <= symTol for all pairs.
// Package tour uses this to pick the 2-opt variant: segment reversal is only
// delta-correct on symmetric matrices.
//
// Complexity: O(n²/2).
func (m *Matrix) IsSymmetric() bool {
	var (
		i, j int
		d    float64
	)
	for i = 0; i < m.n; i++ {
		for j = i + 1; j < m.n; j++ {
			d = m.data[i*m.n+j] - m.data[j*m.n+i]
			if d < 0 {
				d = -d
			}
			if d > symTol {
				return false
			}
		}
	}

	return true
}

// Clone returns an independent deep copy.
//
// Complexity: O(n²).
func (m *Matrix) Clone() *Matrix {
	cp := &Matrix{n: m.n, data: make([]float64, len(m.data))}
	copy(cp.data, m.data)

	return cp
}

// FromRows builds a Matrix from a nested [][]float64 (tests, loaders).
// The input must be square; entries are validated like Set.
//
// Complexity: O(n²).
func FromRows(rows [][]float64) (*Matrix, error) {
	n := len(rows)
	m, err := New(n)
	if err != nil {
		return nil, err
	}

	var i, j int
	for i = 0; i < n; i++ {
		if len(rows[i]) != n {
			return nil, ErrBadShape
		}
		for j = 0; j < n; j++ {
			if err = m.Set(i, j, rows[i][j]); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
