// Package route turns an optimized visiting order into a concrete round-trip
// route with per-segment geometry, totals, and export artifacts.
//
// Materialization is all-or-nothing: if any segment of the tour cannot be
// routed, the whole route is rejected with an error naming the failing pair.
// Partial routes are never returned.
package route

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/veloplan/veloroute/oracle"
	"github.com/veloplan/veloroute/station"
)

var (
	// ErrOrderMismatch is returned when the visiting order is not a
	// permutation of the station indices.
	ErrOrderMismatch = errors.New("route: order does not match station set")

	// ErrEmptyRoute is returned by summaries and exports of a zero-segment
	// route.
	ErrEmptyRoute = errors.New("route: empty route")
)

// Segment is one leg of the round trip, from station From to station To in
// station-set indices, with the concrete path between them.
type Segment struct {
	From int
	To   int
	Leg  oracle.Leg
}

// Route is a fully materialized round trip. Segments has exactly one entry
// per visited station; the last segment closes back to the first stop.
type Route struct {
	Stations []station.Station
	Order    []int
	Segments []Segment

	TotalDistanceMeters  float64
	TotalDurationSeconds float64
}

// Materialize resolves each tour edge, including the closing edge, against
// src. Order must be a permutation of the station indices with the start
// first. The context cancels in-flight segment lookups.
func Materialize(ctx context.Context, stations []station.Station, order []int, src oracle.DirectionsSource) (*Route, error) {
	n := len(stations)
	if len(order) != n || n == 0 {
		return nil, ErrOrderMismatch
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return nil, ErrOrderMismatch
		}
		seen[v] = true
	}

	r := &Route{
		Stations: stations,
		Order:    append([]int(nil), order...),
		Segments: make([]Segment, 0, n),
	}

	for k := 0; k < n; k++ {
		from := order[k]
		to := order[(k+1)%n]

		leg, err := src.Directions(ctx, stations[from].Coord, stations[to].Coord)
		if err != nil {
			return nil, fmt.Errorf("route: segment %d→%d (%s → %s): %w",
				from, to, stations[from].ID, stations[to].ID, err)
		}

		r.Segments = append(r.Segments, Segment{From: from, To: to, Leg: leg})
		r.TotalDistanceMeters += leg.DistanceMeters
		r.TotalDurationSeconds += leg.DurationSeconds
	}

	return r, nil
}

// Summary aggregates per-segment distances of a route.
type Summary struct {
	Segments             int
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	MinSegmentMeters     float64
	MaxSegmentMeters     float64
	MeanSegmentMeters    float64
	StdDevSegmentMeters  float64
}

// Summarize computes segment distance statistics for a materialized route.
func Summarize(r *Route) (Summary, error) {
	if r == nil || len(r.Segments) == 0 {
		return Summary{}, ErrEmptyRoute
	}

	dists := make([]float64, len(r.Segments))
	for i := range r.Segments {
		dists[i] = r.Segments[i].Leg.DistanceMeters
	}

	min, err := stats.Min(dists)
	if err != nil {
		return Summary{}, fmt.Errorf("route: summarizing: %w", err)
	}
	max, err := stats.Max(dists)
	if err != nil {
		return Summary{}, fmt.Errorf("route: summarizing: %w", err)
	}
	mean, err := stats.Mean(dists)
	if err != nil {
		return Summary{}, fmt.Errorf("route: summarizing: %w", err)
	}
	sd, err := stats.StandardDeviation(dists)
	if err != nil {
		return Summary{}, fmt.Errorf("route: summarizing: %w", err)
	}

	return Summary{
		Segments:             len(r.Segments),
		TotalDistanceMeters:  r.TotalDistanceMeters,
		TotalDurationSeconds: r.TotalDurationSeconds,
		MinSegmentMeters:     min,
		MaxSegmentMeters:     max,
		MeanSegmentMeters:    mean,
		StdDevSegmentMeters:  sd,
	}, nil
}

// WriteCSV writes the stop-by-stop itinerary. One row per visited stop plus a
// closing row for the return to the start; distances are kilometers.
func WriteCSV(w io.Writer, r *Route) error {
	if r == nil || len(r.Segments) == 0 {
		return ErrEmptyRoute
	}

	cw := csv.NewWriter(w)
	header := []string{
		"stop_number", "station_id", "station_name", "lat", "lng",
		"distance_to_next_km", "cumulative_distance_km",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("route: writing CSV: %w", err)
	}

	var cumulative float64
	for k, idx := range r.Order {
		s := r.Stations[idx]
		seg := r.Segments[k]

		rec := []string{
			strconv.Itoa(k + 1),
			s.ID,
			s.Name,
			strconv.FormatFloat(s.Coord.Lat, 'f', 6, 64),
			strconv.FormatFloat(s.Coord.Lon, 'f', 6, 64),
			formatKM(seg.Leg.DistanceMeters),
			formatKM(cumulative),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("route: writing CSV: %w", err)
		}
		cumulative += seg.Leg.DistanceMeters
	}

	// Closing row: back at the start, no onward segment.
	start := r.Stations[r.Order[0]]
	rec := []string{
		strconv.Itoa(len(r.Order) + 1),
		start.ID,
		start.Name,
		strconv.FormatFloat(start.Coord.Lat, 'f', 6, 64),
		strconv.FormatFloat(start.Coord.Lon, 'f', 6, 64),
		"",
		formatKM(cumulative),
	}
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("route: writing CSV: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("route: writing CSV: %w", err)
	}

	return nil
}

func formatKM(meters float64) string {
	return strconv.FormatFloat(meters/1000, 'f', 3, 64)
}
