// Package costmatrix builds and stores the N×N travel-cost matrix shared by
// tour construction, local search and materialization.
//
// Storage is a single row-major []float64 buffer indexed i*n+j: the local-search
// inner loop reads it O(N²) times per sweep, and a flat buffer keeps that loop
// cache-friendly while making the "finite, non-negative, zero diagonal"
// invariant checkable in one pass (Validate).
//
// Build fills the matrix from an oracle.CostSource. A TableSource answers in
// one batched query; otherwise every off-diagonal cell is one oracle call,
// issued through a bounded worker pool with a per-call timeout. Any failed cell
// aborts the whole build: a missing entry would silently corrupt every later
// optimization step, so there is no partial-success mode.
package costmatrix
