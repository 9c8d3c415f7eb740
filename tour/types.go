package tour

import "errors"

var (
	// ErrNilMatrix is returned when a nil cost matrix is passed in.
	ErrNilMatrix = errors.New("tour: nil cost matrix")

	// ErrTooFewStations is returned for instances with n < 3: a closed tour
	// needs at least three distinct stations.
	ErrTooFewStations = errors.New("tour: fewer than 3 stations")

	// ErrBadPermutation is returned when an order is not a permutation of
	// {0..n-1} matching the matrix dimension.
	ErrBadPermutation = errors.New("tour: order is not a valid permutation")

	// ErrStartOutOfRange is returned when Options.Start is outside [0,n).
	ErrStartOutOfRange = errors.New("tour: start index out of range")

	// ErrBadOptions is returned on internally inconsistent Options
	// (negative Eps, out-of-range OrOptMaxLen, oversized ExactThreshold).
	ErrBadOptions = errors.New("tour: invalid options")
)

// Strategy selects how an improving move is chosen within a sweep.
type Strategy int

const (
	// FirstImprovement applies each improving move as soon as it is found and
	// continues scanning the same sweep. Deterministic scan order.
	FirstImprovement Strategy = iota

	// BestImprovement scans every candidate of the sweep and applies only the
	// single best one.
	BestImprovement
)

// Termination tells why Optimize stopped. BudgetExhausted is not an error: it
// distinguishes "optimal for this neighborhood" from "ran out of sweeps".
type Termination int

const (
	// Converged: a full sweep found no improving move (local optimum).
	Converged Termination = iota + 1

	// BudgetExhausted: Options.MaxSweeps was reached before convergence.
	BudgetExhausted
)

// String implements fmt.Stringer for log output.
func (t Termination) String() string {
	switch t {
	case Converged:
		return "converged"
	case BudgetExhausted:
		return "budget-exhausted"
	default:
		return "unknown"
	}
}

// NoSweepLimit disables the sweep budget: Optimize runs until convergence.
const NoSweepLimit = -1

// MaxExactThreshold caps Held–Karp instance size; the DP is O(n²·2ⁿ) time and
// O(n·2ⁿ) memory, which is already ~20M float64 at n=20.
const MaxExactThreshold = 20

// DefaultEps is the improvement tolerance: a move is accepted only when its
// delta < -Eps, which keeps floating-point noise from producing endless loops.
const DefaultEps = 1e-9

// Options configures Construct and Optimize. Pass it explicitly; the package
// reads no ambient state.
type Options struct {
	// Start is the index the returned order begins at.
	Start int

	// Strategy is the move-acceptance policy (see Strategy).
	Strategy Strategy

	// Eps is the improvement tolerance (>= 0). Zero means exact comparison;
	// DefaultOptions uses DefaultEps.
	Eps float64

	// MaxSweeps bounds the number of local-search sweeps, checked at sweep
	// boundaries. NoSweepLimit (< 0) means run to convergence; 0 performs no
	// sweeps at all and reports BudgetExhausted with the input unchanged.
	MaxSweeps int

	// ExactThreshold: Construct uses Held–Karp when n <= this value, the
	// nearest-neighbor heuristic otherwise. Must be <= MaxExactThreshold.
	// 0 disables the exact path entirely.
	ExactThreshold int

	// OrOptMaxLen is the longest segment Or-opt may relocate (1..3).
	// 0 disables the Or-opt neighborhood.
	OrOptMaxLen int
}

// DefaultOptions returns the canonical configuration: first-improvement,
// DefaultEps tolerance, unlimited sweeps, exact solving up to 12 stations,
// Or-opt segments up to length 3.
func DefaultOptions() Options {
	return Options{
		Start:          0,
		Strategy:       FirstImprovement,
		Eps:            DefaultEps,
		MaxSweeps:      NoSweepLimit,
		ExactThreshold: 12,
		OrOptMaxLen:    3,
	}
}

// Result is the outcome of Construct or Optimize.
type Result struct {
	// Order is an open permutation of {0..n-1}; Order[0] == Options.Start and
	// the closing edge Order[n-1] → Order[0] is implicit.
	Order []int

	// Cost is the closed-cycle cost including the closing edge, stabilized to
	// 1e-9 to avoid cross-platform FP drift.
	Cost float64

	// Termination is set by Optimize only (Converged / BudgetExhausted).
	Termination Termination

	// Sweeps is the number of completed local-search sweeps (Optimize only).
	Sweeps int
}

// validateOptions checks internal consistency of opts without touching the
// matrix. Start is range-checked later, once n is known.
func validateOptions(opts Options) error {
	if opts.Eps < 0 {
		return ErrBadOptions
	}
	if opts.ExactThreshold < 0 || opts.ExactThreshold > MaxExactThreshold {
		return ErrBadOptions
	}
	if opts.OrOptMaxLen < 0 || opts.OrOptMaxLen > 3 {
		return ErrBadOptions
	}
	switch opts.Strategy {
	case FirstImprovement, BestImprovement:
	default:
		return ErrBadOptions
	}

	return nil
}
