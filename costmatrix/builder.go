package costmatrix

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veloplan/veloroute/geo"
	"github.com/veloplan/veloroute/oracle"
)

// Default builder knobs. A full matrix is O(N²) oracle calls, so point queries
// run through a bounded pool; the per-call timeout keeps one unresponsive query
// from stalling the whole build.
const (
	DefaultWorkers     = 8
	DefaultPairTimeout = 10 * time.Second
)

// Options configures Build. The zero value is usable: defaults are applied to
// unset fields.
type Options struct {
	// Workers bounds the number of concurrent point queries (ignored on the
	// TableSource path). <= 0 means DefaultWorkers.
	Workers int

	// PairTimeout is the per-call deadline for one oracle query.
	// <= 0 means DefaultPairTimeout.
	PairTimeout time.Duration

	// DisableBatch forces the pairwise path even when src supports batched
	// table queries. Useful when a per-pair cache sits in front of the
	// source: the batched path bypasses it.
	DisableBatch bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.PairTimeout <= 0 {
		o.PairTimeout = DefaultPairTimeout
	}

	return o
}

// Build computes the full cost matrix for the given coordinates.
//
// Dispatch order:
//  1. src implements oracle.TableSource → one batched table query
//     (skipped when opts.DisableBatch is set).
//  2. src reports Symmetric()          → upper triangle only, mirrored.
//  3. otherwise                        → every ordered pair i≠j.
//
// The diagonal is fixed at zero. For a fixed source and coordinate ordering the
// output is fully deterministic: workers race on the wall clock but each writes
// a distinct cell, and no cell value depends on scheduling.
//
// Errors: geo.ErrInvalidCoordinate on malformed input; oracle errors are
// wrapped with the failing (i,j) pair so the caller can retry that pair or fall
// back to GreatCircle. A failed cell always aborts the build.
//
// Complexity: O(n²) queries (n²/2 when symmetric, 1..k batched when tabular).
func Build(ctx context.Context, pts []geo.Coordinate, src oracle.CostSource, opts Options) (*Matrix, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	var i int
	for i = range pts {
		if err := pts[i].Validate(); err != nil {
			return nil, fmt.Errorf("costmatrix: station %d: %w", i, err)
		}
	}

	m, err := New(len(pts))
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if ts, ok := src.(oracle.TableSource); ok && !opts.DisableBatch {
		if err = buildFromTable(ctx, m, pts, ts); err != nil {
			return nil, err
		}
	} else if err = buildPairwise(ctx, m, pts, src, opts); err != nil {
		return nil, err
	}

	// One final pass keeps the invariant airtight regardless of source.
	if err = m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// buildFromTable fills m from a single batched table query.
func buildFromTable(ctx context.Context, m *Matrix, pts []geo.Coordinate, src oracle.TableSource) error {
	table, err := src.CostTable(ctx, pts)
	if err != nil {
		return fmt.Errorf("costmatrix: table query for %d points: %w", len(pts), err)
	}

	n := m.N()
	if len(table) != n {
		return ErrBadShape
	}

	var i, j int
	for i = 0; i < n; i++ {
		if len(table[i]) != n {
			return ErrBadShape
		}
		for j = 0; j < n; j++ {
			if i == j {
				continue
			}
			if err = m.Set(i, j, table[i][j]); err != nil {
				return fmt.Errorf("costmatrix: cost(%d,%d): %w", i, j, err)
			}
		}
	}

	return nil
}

// buildPairwise fills m one oracle call per cell through a bounded pool.
// Symmetric sources get the mirrored upper-triangle treatment.
func buildPairwise(ctx context.Context, m *Matrix, pts []geo.Coordinate, src oracle.CostSource, opts Options) error {
	symmetric := false
	if ss, ok := src.(oracle.SymmetricSource); ok {
		symmetric = ss.Symmetric()
	}

	n := m.N()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var i, j int
	for i = 0; i < n; i++ {
		lo := 0
		if symmetric {
			lo = i + 1
		}
		for j = lo; j < n; j++ {
			if i == j {
				continue
			}
			i, j := i, j
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(gctx, opts.PairTimeout)
				defer cancel()

				c, err := src.Cost(cctx, pts[i], pts[j])
				if err != nil {
					return fmt.Errorf("costmatrix: cost(%d,%d): %w", i, j, err)
				}
				// Each goroutine owns exactly the cells (i,j) [and (j,i) when
				// mirrored]; no two workers touch the same index.
				if err = m.Set(i, j, c); err != nil {
					return fmt.Errorf("costmatrix: cost(%d,%d): %w", i, j, err)
				}
				if symmetric {
					if err = m.Set(j, i, c); err != nil {
						return fmt.Errorf("costmatrix: cost(%d,%d): %w", j, i, err)
					}
				}

				return nil
			})
		}
	}

	return g.Wait()
}
