package tour

import "github.com/veloplan/veloroute/costmatrix"

// moveKind discriminates the neighborhood a candidate move belongs to.
type moveKind int

const (
	moveNone moveKind = iota
	moveTwoOpt
	moveOrOpt
)

// move is one candidate local-search move with its evaluated delta.
type move struct {
	kind  moveKind
	delta float64

	// 2-opt: reverse positions [i..k].
	i, k int

	// Or-opt: relocate the segment of length l starting at position p to
	// just after position q.
	p, l, q int
}

// Optimize improves order by sweep-based local search over m and reports how
// it stopped.
//
// Neighborhoods:
//   - 2-opt: reverse a contiguous subsequence. On symmetric matrices the
//     delta is the classic O(1) four-edge formula; on asymmetric matrices the
//     reversal flips every internal arc, so the delta additionally sums the
//     flipped arcs (O(segment length), still never a full-tour recompute).
//   - Or-opt: relocate a segment of length 1..OrOptMaxLen without reversing
//     it, so its delta is direction-safe on any matrix.
//
// A move is accepted only when delta < -Eps; zero-delta ties are rejected so
// the search always terminates. FirstImprovement applies a move immediately
// and continues the sweep; BestImprovement applies the single best move per
// sweep. The sweep budget (MaxSweeps) is checked at sweep boundaries only.
//
// Guarantees: the returned cost is <= the input cost; re-running Optimize on
// a Converged result returns the identical order. Position 0 of the order is
// pinned, so Order[0] is preserved.
//
// n <= 3 instances have no non-trivial moves and short-circuit to Converged.
//
// Errors: ErrNilMatrix, ErrBadPermutation, ErrBadOptions, plus costmatrix
// sentinels if m violates its invariant. Optimize itself performs no I/O.
//
// Complexity: O(n²) candidates per sweep, O(n³) worst case on asymmetric
// matrices (directional 2-opt deltas); applied moves cost O(n).
func Optimize(m *costmatrix.Matrix, order []int, opts Options) (Result, error) {
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
	if err := ValidatePermutation(order, n); err != nil {
		return Result{}, err
	}

	// Work on a copy: the input order stays untouched.
	cur := make([]int, n)
	copy(cur, order)

	cost, err := Cost(m, cur)
	if err != nil {
		return Result{}, err
	}

	// Degenerate neighborhood: a triangle admits no improving 2-opt or
	// Or-opt move.
	if n == 3 {
		return Result{Order: cur, Cost: cost, Termination: Converged}, nil
	}

	s := sweeper{
		w:         m.Raw(),
		n:         n,
		cur:       cur,
		eps:       opts.Eps,
		symmetric: m.IsSymmetric(),
		orOptMax:  opts.OrOptMaxLen,
	}

	sweeps := 0
	for {
		if opts.MaxSweeps >= 0 && sweeps >= opts.MaxSweeps {
			return Result{Order: cur, Cost: round1e9(cost), Termination: BudgetExhausted, Sweeps: sweeps}, nil
		}

		improved, gained := s.sweep(opts.Strategy)
		sweeps++
		cost += gained

		if !improved {
			return Result{Order: cur, Cost: round1e9(cost), Termination: Converged, Sweeps: sweeps}, nil
		}
	}
}

// sweeper holds the hot-loop state of one Optimize run. The cost matrix is
// read through the prefetched flat buffer w[u*n+v]; cur is mutated in place.
type sweeper struct {
	w         []float64
	n         int
	cur       []int
	eps       float64
	symmetric bool
	orOptMax  int
}

func (s *sweeper) at(u, v int) float64 { return s.w[u*s.n+v] }

// sweep considers every candidate move once and returns whether any improving
// move was applied plus the total (negative) cost change.
func (s *sweeper) sweep(strategy Strategy) (bool, float64) {
	if strategy == BestImprovement {
		best := s.scanBest()
		if best.kind == moveNone {
			return false, 0
		}
		s.apply(best)

		return true, best.delta
	}

	// First-improvement: apply on the spot, keep scanning the same sweep.
	var (
		improved bool
		gained   float64
	)
	visit := func(mv move) {
		if mv.delta < -s.eps {
			s.apply(mv)
			improved = true
			gained += mv.delta
		}
	}
	s.scanTwoOpt(visit)
	s.scanOrOpt(visit)

	return improved, gained
}

// scanBest evaluates all candidates and returns the single best improving
// move, or kind == moveNone when the sweep found nothing below -eps.
func (s *sweeper) scanBest() move {
	best := move{kind: moveNone}
	visit := func(mv move) {
		if mv.delta < -s.eps && (best.kind == moveNone || mv.delta < best.delta) {
			best = mv
		}
	}
	s.scanTwoOpt(visit)
	s.scanOrOpt(visit)

	return best
}

// scanTwoOpt enumerates 2-opt candidates (i,k) with 1 <= i < k <= n-1.
// Position 0 stays pinned so the tour keeps its start vertex.
func (s *sweeper) scanTwoOpt(visit func(move)) {
	var (
		n          = s.n
		a, b, c, d int
		delta      float64
		i, k, t    int
	)
	for i = 1; i <= n-2; i++ {
		for k = i + 1; k <= n-1; k++ {
			a = s.cur[i-1]
			b = s.cur[i]
			c = s.cur[k]
			d = s.cur[(k+1)%n]

			// Boundary edges: remove (a,b)+(c,d), add (a,c)+(b,d).
			delta = s.at(a, c) + s.at(b, d) - s.at(a, b) - s.at(c, d)

			if !s.symmetric {
				// Reversal flips every internal arc; add the flipped-minus-
				// forward arc sums. Cancels to zero on symmetric matrices,
				// which is why the classic formula only holds there.
				for t = i; t < k; t++ {
					delta += s.at(s.cur[t+1], s.cur[t]) - s.at(s.cur[t], s.cur[t+1])
				}
			}

			visit(move{kind: moveTwoOpt, delta: delta, i: i, k: k})
		}
	}
}

// scanOrOpt enumerates relocations of segments [p..p+l-1] (l = 1..orOptMax)
// to just after position q. The segment keeps its orientation, so the delta
// is three removed edges vs three added edges in both the symmetric and the
// asymmetric case.
func (s *sweeper) scanOrOpt(visit func(move)) {
	var (
		n                 = s.n
		l, p, q           int
		pre, s0, sE, post int
		u, v              int
		delta             float64
	)
	for l = 1; l <= s.orOptMax; l++ {
		if l >= n-1 {
			break // nothing left to relocate around
		}
		for p = 1; p+l-1 <= n-1; p++ {
			for q = 0; q < n; q++ {
				// Skip target edges touching the segment or its removal
				// seam: q == p-1 re-inserts in place (no-op) and
				// q ∈ [p..p+l-1] would insert the segment into itself.
				if q >= p-1 && q <= p+l-1 {
					continue
				}
				// Re-read endpoints per candidate: first-improvement may
				// have mutated cur earlier in this very sweep.
				pre = s.cur[p-1]
				s0 = s.cur[p]
				sE = s.cur[p+l-1]
				post = s.cur[(p+l)%n]
				u = s.cur[q]
				v = s.cur[(q+1)%n]

				delta = s.at(pre, post) + s.at(u, s0) + s.at(sE, v) -
					s.at(pre, s0) - s.at(sE, post) - s.at(u, v)

				visit(move{kind: moveOrOpt, delta: delta, p: p, l: l, q: q})
			}
		}
	}
}

// apply mutates cur according to mv. O(n) worst case, executed only on
// accepted moves.
func (s *sweeper) apply(mv move) {
	switch mv.kind {
	case moveTwoOpt:
		s.reverse(mv.i, mv.k)
	case moveOrOpt:
		s.relocate(mv.p, mv.l, mv.q)
	}
}

// reverse flips cur[i..k] in place.
func (s *sweeper) reverse(i, k int) {
	for i < k {
		s.cur[i], s.cur[k] = s.cur[k], s.cur[i]
		i++
		k--
	}
}

// relocate removes the segment cur[p..p+l-1] and re-inserts it right after
// the vertex currently at position q (q is outside the segment).
func (s *sweeper) relocate(p, l, q int) {
	var (
		n   = s.n
		u   = s.cur[q]
		seg = make([]int, l)
		out = make([]int, 0, n)
		t   int
	)
	copy(seg, s.cur[p:p+l])

	for t = 0; t < n; t++ {
		if t >= p && t < p+l {
			continue
		}
		out = append(out, s.cur[t])
		if s.cur[t] == u {
			out = append(out, seg...)
		}
	}
	copy(s.cur, out)
}
