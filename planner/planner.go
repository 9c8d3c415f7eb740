// Package planner runs the full planning pipeline: cost matrix construction,
// tour construction, local-search improvement, and route materialization.
//
// Each run is tagged with a UUID and logs stage timings, so interleaved runs
// in one process remain distinguishable.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloplan/veloroute/costmatrix"
	"github.com/veloplan/veloroute/oracle"
	"github.com/veloplan/veloroute/route"
	"github.com/veloplan/veloroute/station"
	"github.com/veloplan/veloroute/tour"
)

// ErrTooFewStations is returned when fewer than three stations are given; a
// round trip needs at least three distinct stops.
var ErrTooFewStations = errors.New("planner: need at least 3 stations")

// Config carries the pipeline knobs. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Matrix costmatrix.Options
	Tour   tour.Options
	Logger *zap.Logger
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Matrix: costmatrix.Options{},
		Tour:   tour.DefaultOptions(),
		Logger: zap.NewNop(),
	}
}

// Plan is the outcome of one pipeline run.
type Plan struct {
	RunID    string
	Stations []station.Station
	Tour     tour.Result
	Route    *route.Route
	Summary  route.Summary
}

// Run plans a round trip over stations. costSrc prices station pairs during
// optimization; dirSrc resolves the final tour into concrete paths. The two
// may be the same backend.
func Run(ctx context.Context, stations []station.Station, costSrc oracle.CostSource, dirSrc oracle.DirectionsSource, cfg Config) (*Plan, error) {
	if len(stations) < 3 {
		return nil, ErrTooFewStations
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))
	log.Info("planning round trip", zap.Int("stations", len(stations)))

	started := time.Now()
	m, err := costmatrix.Build(ctx, station.Coordinates(stations), costSrc, cfg.Matrix)
	if err != nil {
		return nil, err
	}
	log.Info("cost matrix built",
		zap.Int("n", m.N()),
		zap.Bool("symmetric", m.IsSymmetric()),
		zap.Duration("took", time.Since(started)))

	started = time.Now()
	initial, err := tour.Construct(m, cfg.Tour)
	if err != nil {
		return nil, err
	}
	log.Info("initial tour constructed",
		zap.Float64("cost", initial.Cost),
		zap.Duration("took", time.Since(started)))

	started = time.Now()
	improved, err := tour.Optimize(m, initial.Order, cfg.Tour)
	if err != nil {
		return nil, err
	}
	log.Info("tour optimized",
		zap.Float64("cost", improved.Cost),
		zap.Float64("improvement", initial.Cost-improved.Cost),
		zap.Int("sweeps", improved.Sweeps),
		zap.Stringer("termination", improved.Termination),
		zap.Duration("took", time.Since(started)))

	started = time.Now()
	r, err := route.Materialize(ctx, stations, improved.Order, dirSrc)
	if err != nil {
		return nil, err
	}

	summary, err := route.Summarize(r)
	if err != nil {
		return nil, err
	}
	log.Info("route materialized",
		zap.Float64("total_km", summary.TotalDistanceMeters/1000),
		zap.Int("segments", summary.Segments),
		zap.Duration("took", time.Since(started)))

	return &Plan{
		RunID:    runID,
		Stations: stations,
		Tour:     improved,
		Route:    r,
		Summary:  summary,
	}, nil
}
