// Package gmaps is the routing oracle backed by the Google Maps Platform.
//
// Costs come from the Distance Matrix API and path geometry from the
// Directions API, both requested with bicycling as the travel mode. The
// client implements oracle.CostSource, oracle.TableSource and
// oracle.DirectionsSource, mapping ZERO_RESULTS answers to oracle.ErrNoRoute
// and transport or quota failures to oracle.ErrUnavailable.
package gmaps

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/veloplan/veloroute/geo"
	"github.com/veloplan/veloroute/oracle"
)

// Metric selects which scalar of a Distance Matrix element becomes the cost.
type Metric int

const (
	// MetricDistance uses element distance in meters.
	MetricDistance Metric = iota

	// MetricDuration uses element duration in seconds.
	MetricDuration
)

// maxMatrixOrigins caps origins per Distance Matrix request; the API limits
// one request to 25 origins and 25 destinations.
const maxMatrixOrigins = 25

// Client queries the Google Maps Platform for bicycling routes.
type Client struct {
	mc      *maps.Client
	metric  Metric
	log     *zap.Logger
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithMetric selects distance or duration costs (default MetricDistance).
func WithMetric(m Metric) Option { return func(c *Client) { c.metric = m } }

// WithLogger attaches a structured logger (default: no-op).
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithBaseURL points the client at an alternate API endpoint (tests).
func WithBaseURL(url string) Option { return func(c *Client) { c.baseURL = url } }

// NewClient returns a Client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{metric: MetricDistance, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	mapsOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		mapsOpts = append(mapsOpts, maps.WithBaseURL(c.baseURL))
	}

	mc, err := maps.NewClient(mapsOpts...)
	if err != nil {
		return nil, fmt.Errorf("gmaps: %w", err)
	}
	c.mc = mc

	return c, nil
}

var (
	_ oracle.TableSource      = (*Client)(nil)
	_ oracle.DirectionsSource = (*Client)(nil)
)

func latLngString(c geo.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Cost returns the bicycling cost from→to under the client's metric.
func (c *Client) Cost(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	row, err := c.matrix(ctx, []geo.Coordinate{from}, []geo.Coordinate{to})
	if err != nil {
		return 0, err
	}

	return row[0][0], nil
}

// CostTable fetches the full pts×pts cost table, chunking origins to the
// Distance Matrix request limits.
func (c *Client) CostTable(ctx context.Context, pts []geo.Coordinate) ([][]float64, error) {
	n := len(pts)
	table := make([][]float64, n)
	for i := range table {
		table[i] = make([]float64, n)
	}

	for lo := 0; lo < n; lo += maxMatrixOrigins {
		hi := lo + maxMatrixOrigins
		if hi > n {
			hi = n
		}
		for dlo := 0; dlo < n; dlo += maxMatrixOrigins {
			dhi := dlo + maxMatrixOrigins
			if dhi > n {
				dhi = n
			}

			block, err := c.matrix(ctx, pts[lo:hi], pts[dlo:dhi])
			if err != nil {
				return nil, err
			}
			for i, row := range block {
				copy(table[lo+i][dlo:dhi], row)
			}
		}
	}

	// Self-pairs may come back nonzero when the API snaps both endpoints to
	// slightly different road points; force the diagonal.
	for i := 0; i < n; i++ {
		table[i][i] = 0
	}

	return table, nil
}

// matrix performs one Distance Matrix call and converts it to cost rows.
func (c *Client) matrix(ctx context.Context, origins, dests []geo.Coordinate) ([][]float64, error) {
	for i := range origins {
		if err := origins[i].Validate(); err != nil {
			return nil, err
		}
	}
	for i := range dests {
		if err := dests[i].Validate(); err != nil {
			return nil, err
		}
	}

	req := &maps.DistanceMatrixRequest{
		Origins:      coordStrings(origins),
		Destinations: coordStrings(dests),
		Mode:         maps.TravelModeBicycling,
	}

	resp, err := c.mc.DistanceMatrix(ctx, req)
	if err != nil {
		c.log.Warn("distance matrix request failed", zap.Error(err))
		return nil, fmt.Errorf("gmaps: distance matrix: %v: %w", err, oracle.ErrUnavailable)
	}
	if len(resp.Rows) != len(origins) {
		return nil, fmt.Errorf("gmaps: distance matrix shape %d rows, want %d: %w",
			len(resp.Rows), len(origins), oracle.ErrUnavailable)
	}

	out := make([][]float64, len(origins))
	for i, row := range resp.Rows {
		if len(row.Elements) != len(dests) {
			return nil, fmt.Errorf("gmaps: distance matrix row %d shape: %w", i, oracle.ErrUnavailable)
		}
		out[i] = make([]float64, len(dests))
		for j, el := range row.Elements {
			switch el.Status {
			case "OK":
			case "ZERO_RESULTS":
				return nil, fmt.Errorf("gmaps: pair (%d,%d): %w", i, j, oracle.ErrNoRoute)
			default:
				return nil, fmt.Errorf("gmaps: pair (%d,%d) status %q: %w", i, j, el.Status, oracle.ErrUnavailable)
			}
			if c.metric == MetricDuration {
				out[i][j] = el.Duration.Seconds()
			} else {
				out[i][j] = float64(el.Distance.Meters)
			}
		}
	}

	return out, nil
}

func coordStrings(pts []geo.Coordinate) []string {
	out := make([]string, len(pts))
	for i := range pts {
		out[i] = latLngString(pts[i])
	}

	return out
}

// Directions returns the bicycling path from→to with the overview geometry
// decoded from the route polyline.
func (c *Client) Directions(ctx context.Context, from, to geo.Coordinate) (oracle.Leg, error) {
	if err := from.Validate(); err != nil {
		return oracle.Leg{}, err
	}
	if err := to.Validate(); err != nil {
		return oracle.Leg{}, err
	}

	req := &maps.DirectionsRequest{
		Origin:      latLngString(from),
		Destination: latLngString(to),
		Mode:        maps.TravelModeBicycling,
	}

	routes, _, err := c.mc.Directions(ctx, req)
	if err != nil {
		// The maps library surfaces ZERO_RESULTS as a status error rather
		// than an empty route list.
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return oracle.Leg{}, fmt.Errorf("gmaps: directions: %w", oracle.ErrNoRoute)
		}
		c.log.Warn("directions request failed", zap.Error(err))
		return oracle.Leg{}, fmt.Errorf("gmaps: directions: %v: %w", err, oracle.ErrUnavailable)
	}
	if len(routes) == 0 {
		return oracle.Leg{}, fmt.Errorf("gmaps: no route between %s and %s: %w",
			latLngString(from), latLngString(to), oracle.ErrNoRoute)
	}

	r := routes[0]
	pts, err := maps.DecodePolyline(r.OverviewPolyline.Points)
	if err != nil {
		return oracle.Leg{}, fmt.Errorf("gmaps: decoding polyline: %w", err)
	}

	leg := oracle.Leg{Geometry: make([]geo.Coordinate, 0, len(pts))}
	for _, p := range pts {
		leg.Geometry = append(leg.Geometry, geo.Coordinate{Lat: p.Lat, Lon: p.Lng})
	}
	for _, l := range r.Legs {
		leg.DistanceMeters += float64(l.Distance.Meters)
		leg.DurationSeconds += l.Duration.Seconds()
	}

	return leg, nil
}
