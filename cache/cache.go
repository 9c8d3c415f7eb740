// Package cache persists pair costs in SQLite so repeated planning runs over
// the same station set do not re-query the routing backend.
//
// Entries are keyed by travel profile plus both endpoints rounded to 1e-5
// degrees (about one meter), which makes lookups stable across runs even when
// coordinates arrive with different float noise. Both distance and duration
// are stored for every pair, so a cache built under one metric serves the
// other.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/veloplan/veloroute/geo"
	"github.com/veloplan/veloroute/osrm"
)

const schema = `
CREATE TABLE IF NOT EXISTS pair_cache (
	profile         TEXT NOT NULL,
	from_lat        REAL NOT NULL,
	from_lng        REAL NOT NULL,
	to_lat          REAL NOT NULL,
	to_lng          REAL NOT NULL,
	distance_meters REAL NOT NULL,
	duration_secs   REAL NOT NULL,
	PRIMARY KEY (profile, from_lat, from_lng, to_lat, to_lng)
)`

// Store is a SQLite-backed pair cache. It implements osrm.PairCache and is
// safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.Logger
}

var _ osrm.PairCache = (*Store)(nil)

// Open opens (or creates) the cache database at path. Use ":memory:" for an
// ephemeral cache.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("cache: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: initializing schema: %w", err)
	}

	log.Debug("pair cache opened", zap.String("path", path))

	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// roundCoord snaps a coordinate to the cache key grid.
func roundCoord(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// Get looks up a cached pair cost. A miss is (zero, false, nil).
func (s *Store) Get(ctx context.Context, profile string, from, to geo.Coordinate) (osrm.CachedCost, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT distance_meters, duration_secs FROM pair_cache
	           WHERE profile = ? AND from_lat = ? AND from_lng = ? AND to_lat = ? AND to_lng = ?`

	var c osrm.CachedCost
	err := s.db.QueryRowContext(ctx, q,
		profile,
		roundCoord(from.Lat), roundCoord(from.Lon),
		roundCoord(to.Lat), roundCoord(to.Lon),
	).Scan(&c.DistanceMeters, &c.DurationSeconds)

	if errors.Is(err, sql.ErrNoRows) {
		return osrm.CachedCost{}, false, nil
	}
	if err != nil {
		return osrm.CachedCost{}, false, fmt.Errorf("cache: get: %w", err)
	}

	return c, true, nil
}

// Put stores one pair cost, replacing any previous entry for the same key.
func (s *Store) Put(ctx context.Context, profile string, from, to geo.Coordinate, c osrm.CachedCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const q = `INSERT OR REPLACE INTO pair_cache
	           (profile, from_lat, from_lng, to_lat, to_lng, distance_meters, duration_secs)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		profile,
		roundCoord(from.Lat), roundCoord(from.Lon),
		roundCoord(to.Lat), roundCoord(to.Lon),
		c.DistanceMeters, c.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}

	return nil
}

// PutBatch stores many pair costs in one transaction.
func (s *Store) PutBatch(ctx context.Context, profile string, froms, tos []geo.Coordinate, costs []osrm.CachedCost) error {
	if len(froms) != len(tos) || len(froms) != len(costs) {
		return fmt.Errorf("cache: put batch: mismatched slice lengths %d/%d/%d",
			len(froms), len(tos), len(costs))
	}
	if len(froms) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: put batch: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT OR REPLACE INTO pair_cache
	           (profile, from_lat, from_lng, to_lat, to_lng, distance_meters, duration_secs)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("cache: put batch: %w", err)
	}
	defer stmt.Close()

	for i := range froms {
		_, err := stmt.ExecContext(ctx,
			profile,
			roundCoord(froms[i].Lat), roundCoord(froms[i].Lon),
			roundCoord(tos[i].Lat), roundCoord(tos[i].Lon),
			costs[i].DistanceMeters, costs[i].DurationSeconds,
		)
		if err != nil {
			return fmt.Errorf("cache: put batch entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: put batch commit: %w", err)
	}

	return nil
}

// Clear drops every cached pair.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM pair_cache"); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}

	return nil
}
