package oracle

import (
	"context"

	"github.com/veloplan/veloroute/geo"
)

// GreatCircle is the straight-line cost model: haversine meters between two
// coordinates. It is pure and never performs I/O; the only failure mode is
// geo.ErrInvalidCoordinate on malformed input.
//
// It satisfies CostSource, DirectionsSource and SymmetricSource, so the whole
// pipeline (matrix build, optimization, materialization) runs offline with it.
type GreatCircle struct {
	// SpeedMPS, when positive, is used to derive Leg durations from distance
	// (a flat cruising-speed estimate). Zero leaves durations at 0.
	SpeedMPS float64
}

var (
	_ TableSource      = GreatCircle{}
	_ DirectionsSource = GreatCircle{}
	_ SymmetricSource  = GreatCircle{}
)

// Cost returns the haversine distance in meters.
func (g GreatCircle) Cost(_ context.Context, from, to geo.Coordinate) (float64, error) {
	if err := from.Validate(); err != nil {
		return 0, err
	}
	if err := to.Validate(); err != nil {
		return 0, err
	}

	return geo.Haversine(from, to), nil
}

// CostTable computes the full symmetric table in O(n²/2) haversine calls.
func (g GreatCircle) CostTable(_ context.Context, pts []geo.Coordinate) ([][]float64, error) {
	n := len(pts)

	var i, j int
	for i = 0; i < n; i++ {
		if err := pts[i].Validate(); err != nil {
			return nil, err
		}
	}

	table := make([][]float64, n)
	for i = 0; i < n; i++ {
		table[i] = make([]float64, n)
	}
	var d float64
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			d = geo.Haversine(pts[i], pts[j])
			table[i][j] = d
			table[j][i] = d
		}
	}

	return table, nil
}

// Directions returns a two-point straight segment from→to.
func (g GreatCircle) Directions(ctx context.Context, from, to geo.Coordinate) (Leg, error) {
	d, err := g.Cost(ctx, from, to)
	if err != nil {
		return Leg{}, err
	}

	leg := Leg{
		Geometry:       []geo.Coordinate{from, to},
		DistanceMeters: d,
	}
	if g.SpeedMPS > 0 {
		leg.DurationSeconds = d / g.SpeedMPS
	}

	return leg, nil
}

// Symmetric reports that great-circle costs are direction-independent.
func (g GreatCircle) Symmetric() bool { return true }
