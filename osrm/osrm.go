// Package osrm is the network routing oracle backed by an OSRM server.
//
// It speaks three OSRM services:
//
//   - /route/v1 for single-pair costs (overview=false) and for full path
//     geometry (overview=full&geometries=geojson),
//   - /table/v1 for batched cost tables, chunked to the coordinate limit of
//     public OSRM deployments.
//
// The client implements oracle.CostSource, oracle.TableSource and
// oracle.DirectionsSource. Transport failures and non-OK HTTP statuses map to
// oracle.ErrUnavailable; an explicit "no path" answer maps to
// oracle.ErrNoRoute. OSRM is treated as untrusted: every response is decoded
// and range-checked before use.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veloplan/veloroute/geo"
	"github.com/veloplan/veloroute/oracle"
)

// Metric selects which scalar of an OSRM answer becomes the cost.
type Metric int

const (
	// MetricDistance uses route distance in meters.
	MetricDistance Metric = iota

	// MetricDuration uses route duration in seconds.
	MetricDuration
)

// maxTableCoordinates is the coordinate cap per /table request on the public
// OSRM API; larger point sets are fetched in source/destination chunks.
const maxTableCoordinates = 80

// DefaultTimeout bounds one HTTP round trip.
const DefaultTimeout = 10 * time.Second

// CachedCost is one remembered pair answer. Both scalars are stored so a
// cache built under one Metric serves the other as well.
type CachedCost struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// PairCache remembers pair costs across runs. Implementations are expected to
// key by rounded coordinates plus profile (see package cache). A miss is
// (zero, false, nil); errors abort the lookup.
type PairCache interface {
	Get(ctx context.Context, profile string, from, to geo.Coordinate) (CachedCost, bool, error)
	Put(ctx context.Context, profile string, from, to geo.Coordinate, c CachedCost) error
}

// Client queries one OSRM deployment under a fixed travel profile.
type Client struct {
	baseURL string
	profile string
	metric  Metric
	hc      *http.Client
	cache   PairCache
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithProfile sets the OSRM travel profile (default "bicycle").
func WithProfile(p string) Option { return func(c *Client) { c.profile = p } }

// WithMetric selects distance or duration costs (default MetricDistance).
func WithMetric(m Metric) Option { return func(c *Client) { c.metric = m } }

// WithHTTPClient replaces the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithCache attaches a pair cache consulted before any /route cost query.
func WithCache(pc PairCache) Option { return func(c *Client) { c.cache = pc } }

// WithLogger attaches a structured logger (default: no-op).
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a Client for the OSRM server at baseURL
// (e.g. "http://localhost:5000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "bicycle",
		metric:  MetricDistance,
		hc:      &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

var (
	_ oracle.TableSource      = (*Client)(nil)
	_ oracle.DirectionsSource = (*Client)(nil)
)

// routeResponse is the subset of an OSRM /route answer the client reads.
type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// tableResponse is the subset of an OSRM /table answer the client reads.
// Unreachable pairs come back as JSON null, hence the pointer cells.
type tableResponse struct {
	Code      string       `json:"code"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Cost returns the travel cost from→to under the client's metric, consulting
// the pair cache first when one is attached.
func (c *Client) Cost(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, c.profile, from, to)
		if err != nil {
			return 0, err
		}
		if ok {
			return c.pick(cached), nil
		}
	}

	rr, err := c.route(ctx, from, to, false)
	if err != nil {
		return 0, err
	}

	cost := CachedCost{
		DistanceMeters:  rr.Routes[0].Distance,
		DurationSeconds: rr.Routes[0].Duration,
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, c.profile, from, to, cost); err != nil {
			return 0, err
		}
	}

	return c.pick(cost), nil
}

func (c *Client) pick(cc CachedCost) float64 {
	if c.metric == MetricDuration {
		return cc.DurationSeconds
	}

	return cc.DistanceMeters
}

// Directions returns the concrete path from→to with full geometry.
func (c *Client) Directions(ctx context.Context, from, to geo.Coordinate) (oracle.Leg, error) {
	rr, err := c.route(ctx, from, to, true)
	if err != nil {
		return oracle.Leg{}, err
	}

	r := rr.Routes[0]
	leg := oracle.Leg{
		Geometry:        make([]geo.Coordinate, 0, len(r.Geometry.Coordinates)),
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}
	for _, pt := range r.Geometry.Coordinates {
		if len(pt) < 2 {
			return oracle.Leg{}, fmt.Errorf("osrm: malformed geometry point: %w", oracle.ErrUnavailable)
		}
		// GeoJSON order is [lon, lat].
		leg.Geometry = append(leg.Geometry, geo.Coordinate{Lat: pt[1], Lon: pt[0]})
	}

	return leg, nil
}

// route performs one /route query and validates the envelope.
func (c *Client) route(ctx context.Context, from, to geo.Coordinate, fullGeometry bool) (*routeResponse, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=false",
		c.baseURL, c.profile, formatCoord(from), formatCoord(to))
	if fullGeometry {
		url = fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
			c.baseURL, c.profile, formatCoord(from), formatCoord(to))
	}

	var rr routeResponse
	if err := c.getJSON(ctx, url, &rr); err != nil {
		return nil, err
	}
	if noRouteCode(rr.Code) {
		return nil, fmt.Errorf("osrm: %s: %w", rr.Code, oracle.ErrNoRoute)
	}
	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		return nil, fmt.Errorf("osrm: unexpected answer code %q: %w", rr.Code, oracle.ErrUnavailable)
	}

	return &rr, nil
}

// CostTable fetches the full cost table for pts via /table, splitting into
// chunked source/destination requests past maxTableCoordinates.
func (c *Client) CostTable(ctx context.Context, pts []geo.Coordinate) ([][]float64, error) {
	n := len(pts)
	for i := range pts {
		if err := pts[i].Validate(); err != nil {
			return nil, err
		}
	}

	table := make([][]float64, n)
	for i := range table {
		table[i] = make([]float64, n)
	}

	var chunks [][]int
	for lo := 0; lo < n; lo += maxTableCoordinates {
		hi := lo + maxTableCoordinates
		if hi > n {
			hi = n
		}
		idx := make([]int, hi-lo)
		for k := range idx {
			idx[k] = lo + k
		}
		chunks = append(chunks, idx)
	}
	c.log.Debug("osrm table plan",
		zap.Int("points", n), zap.Int("chunks", len(chunks)))

	for _, src := range chunks {
		for _, dst := range chunks {
			if err := c.tableChunk(ctx, pts, table, src, dst); err != nil {
				return nil, err
			}
		}
	}

	return table, nil
}

// tableChunk fetches one sources×destinations block and writes it into table.
func (c *Client) tableChunk(ctx context.Context, pts []geo.Coordinate, table [][]float64, src, dst []int) error {
	// Coordinate list = union of the two index sets, locally renumbered.
	local := map[int]int{}
	var coords []string
	add := func(idx int) {
		if _, ok := local[idx]; ok {
			return
		}
		local[idx] = len(coords)
		coords = append(coords, formatCoord(pts[idx]))
	}
	for _, i := range src {
		add(i)
	}
	for _, j := range dst {
		add(j)
	}

	var sources, dests []string
	for _, i := range src {
		sources = append(sources, strconv.Itoa(local[i]))
	}
	for _, j := range dst {
		dests = append(dests, strconv.Itoa(local[j]))
	}

	url := fmt.Sprintf("%s/table/v1/%s/%s?annotations=distance,duration&sources=%s&destinations=%s",
		c.baseURL, c.profile, strings.Join(coords, ";"),
		strings.Join(sources, ";"), strings.Join(dests, ";"))

	var tr tableResponse
	if err := c.getJSON(ctx, url, &tr); err != nil {
		return err
	}
	if tr.Code != "Ok" {
		return fmt.Errorf("osrm: table answer code %q: %w", tr.Code, oracle.ErrUnavailable)
	}

	cells := tr.Distances
	if c.metric == MetricDuration {
		cells = tr.Durations
	}
	if len(cells) != len(src) {
		return fmt.Errorf("osrm: table shape %d rows, want %d: %w", len(cells), len(src), oracle.ErrUnavailable)
	}

	for si, i := range src {
		if len(cells[si]) != len(dst) {
			return fmt.Errorf("osrm: table row %d shape: %w", si, oracle.ErrUnavailable)
		}
		for di, j := range dst {
			if i == j {
				continue
			}
			cell := cells[si][di]
			if cell == nil {
				// Null cell: OSRM found no path between this pair.
				return fmt.Errorf("osrm: table pair (%d,%d): %w", i, j, oracle.ErrNoRoute)
			}
			table[i][j] = *cell
		}
	}

	return nil
}

// getJSON performs one GET and decodes the body, mapping transport and HTTP
// failures to oracle.ErrUnavailable.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("osrm: building request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn("osrm request failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("osrm: %v: %w", err, oracle.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("osrm non-OK status",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return fmt.Errorf("osrm: HTTP %d: %w", resp.StatusCode, oracle.ErrUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("osrm: decoding response: %w", err)
	}

	return nil
}

// formatCoord renders "lon,lat" the way OSRM URLs expect.
func formatCoord(c geo.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}

// noRouteCode reports whether an OSRM answer code means "reachable service,
// no feasible path".
func noRouteCode(code string) bool {
	switch code {
	case "NoRoute", "NoSegment", "NoMatch":
		return true
	}

	return false
}
