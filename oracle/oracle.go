package oracle

import (
	"context"
	"errors"

	"github.com/veloplan/veloroute/geo"
)

var (
	// ErrUnavailable signals a transient transport failure: timeout, refused
	// connection, or a non-OK HTTP status from the routing service.
	ErrUnavailable = errors.New("oracle: routing service unavailable")

	// ErrNoRoute signals that the service was reachable but reported no
	// feasible path between the two points.
	ErrNoRoute = errors.New("oracle: no feasible route between points")
)

// CostSource converts an ordered coordinate pair into a scalar travel cost.
// Cost(a, a) must be 0; costs are finite and non-negative on success.
type CostSource interface {
	Cost(ctx context.Context, from, to geo.Coordinate) (float64, error)
}

// TableSource is an optional upgrade for sources that can answer a full N×N
// cost table in a single (or internally batched) query. costmatrix.Build
// prefers this path: a full matrix is O(N²) point queries otherwise.
type TableSource interface {
	CostSource
	CostTable(ctx context.Context, pts []geo.Coordinate) ([][]float64, error)
}

// SymmetricSource marks sources whose costs satisfy cost(a,b) == cost(b,a).
// Builders may then compute only the upper triangle and mirror it.
type SymmetricSource interface {
	Symmetric() bool
}

// Leg is one concrete path between two consecutive stations.
type Leg struct {
	// Geometry is the ordered waypoint polyline, start to end inclusive.
	Geometry []geo.Coordinate

	DistanceMeters  float64
	DurationSeconds float64
}

// DirectionsSource produces a concrete path between two points.
type DirectionsSource interface {
	Directions(ctx context.Context, from, to geo.Coordinate) (Leg, error)
}
