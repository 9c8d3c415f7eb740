package geo

import (
	"errors"
	"math"
)

// ErrInvalidCoordinate is returned when a latitude/longitude pair is NaN, ±Inf
// or outside the valid degree ranges. Callers match it via errors.Is.
var ErrInvalidCoordinate = errors.New("geo: invalid coordinate")

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate reports whether the coordinate is finite and within
// [-90,90]×[-180,180]. Returns ErrInvalidCoordinate otherwise.
//
// Complexity: O(1).
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return ErrInvalidCoordinate
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return ErrInvalidCoordinate
	}
	if c.Lat < -90 || c.Lat > 90 {
		return ErrInvalidCoordinate
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinate
	}

	return nil
}

// Haversine returns the great-circle distance between a and b in meters.
//
// Properties (relied upon by costmatrix and its tests):
//   - symmetric: Haversine(a,b) == Haversine(b,a),
//   - zero on identical points,
//   - satisfies the triangle inequality within floating tolerance.
//
// The caller is responsible for validating coordinates first; Haversine itself
// never fails for finite input.
//
// Complexity: O(1).
func Haversine(a, b Coordinate) float64 {
	var (
		lat1 = a.Lat * math.Pi / 180
		lat2 = b.Lat * math.Pi / 180
		dLat = (b.Lat - a.Lat) * math.Pi / 180
		dLon = (b.Lon - a.Lon) * math.Pi / 180
	)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Clamp against FP drift before Asin; h may exceed 1 by ~1 ulp for
	// antipodal points.
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}
