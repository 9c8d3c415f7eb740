// Package tour turns a cost matrix into a closed visiting order and improves
// it by local search.
//
// A tour is an open permutation of {0..n-1} of length n whose closing edge
// (last → first) is implicit. Construct produces the initial order
// (nearest-neighbor, or exact Held–Karp DP for small instances); Optimize
// improves it with delta-evaluated neighborhood moves:
//
//   - 2-opt segment reversal: classic O(1) four-edge delta on symmetric
//     matrices; on asymmetric matrices the delta additionally sums the arcs
//     flipped by the reversal (the classic formula is invalid there),
//   - Or-opt relocation of segments of length 1..3, which keeps segment
//     orientation and is therefore direction-safe on any matrix.
//
// A sweep considers every candidate move once; sweeps repeat until none
// improves (Converged) or the sweep budget runs out (BudgetExhausted, a
// distinct, non-error outcome). Moves are accepted only when their delta beats
// -Eps, so zero-delta ties can never loop forever. Optimize never returns a
// tour costlier than its input and is idempotent at convergence.
//
// The package is pure: no I/O, no logging, deterministic for identical input.
// All failures are sentinel errors matched with errors.Is.
package tour
