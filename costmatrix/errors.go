// Package costmatrix: sentinel error set.
//
// All exported operations return these sentinels (optionally wrapped with
// fmt.Errorf("...: %w", ...) for pair context at the build boundary); tests and
// callers match them via errors.Is. No function panics on user input.
package costmatrix

import "errors"

var (
	// ErrBadShape is returned when a requested matrix order is < 1 or a
	// supplied table is not square of the expected size.
	ErrBadShape = errors.New("costmatrix: invalid shape")

	// ErrOutOfRange indicates an index outside [0,n) on At/Set.
	ErrOutOfRange = errors.New("costmatrix: index out of range")

	// ErrNotFinite indicates a NaN or ±Inf entry where a finite cost is
	// required. A failed oracle lookup must surface as an error, never as a
	// sentinel value in the matrix.
	ErrNotFinite = errors.New("costmatrix: cost is NaN or Inf")

	// ErrNegativeCost indicates a negative entry; travel costs are >= 0.
	ErrNegativeCost = errors.New("costmatrix: negative cost")

	// ErrNonZeroDiagonal indicates dist(i,i) != 0.
	ErrNonZeroDiagonal = errors.New("costmatrix: diagonal not zero")

	// ErrNilSource indicates Build was called without a cost source.
	ErrNilSource = errors.New("costmatrix: nil cost source")
)
