// Package station defines the bike-share station record and its loaders.
//
// Two input shapes are supported, matching what station feeds actually emit:
//
//   - CSV with columns id, station_name, lat, lng;
//   - the supply JSON exposed by GBFS-style APIs:
//     {"data": {"supply": {"stations": [{"stationName": ..., "location": {"lat": ..., "lng": ...}}]}}}.
//
// Stations are immutable once loaded; the planning core only reads their
// coordinates.
package station

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/veloplan/veloroute/geo"
)

var (
	// ErrBadRecord is returned when a CSV/JSON record cannot be parsed into
	// a station (missing column, non-numeric coordinate).
	ErrBadRecord = errors.New("station: malformed record")

	// ErrNoStations is returned when a source parses cleanly but contains no
	// stations at all.
	ErrNoStations = errors.New("station: empty station set")
)

// Station is one bike-share dock. ID and Name come from the feed verbatim;
// Coord has been range-validated at load time.
type Station struct {
	ID    string
	Name  string
	Coord geo.Coordinate
}

// Coordinates projects the station list onto its coordinate slice, in the
// same order. This is the shape costmatrix.Build and route.Materialize take.
func Coordinates(stations []Station) []geo.Coordinate {
	out := make([]geo.Coordinate, len(stations))
	for i := range stations {
		out[i] = stations[i].Coord
	}

	return out
}

// ReadCSV parses stations from r. Expected header: id, station_name, lat, lng
// (column order is taken from the header, extra columns are ignored).
func ReadCSV(r io.Reader) ([]Station, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("station: reading CSV header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, want := range []string{"id", "station_name", "lat", "lng"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("station: missing CSV column %q: %w", want, ErrBadRecord)
		}
	}

	var stations []Station
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("station: CSV line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(rec[col["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("station: CSV line %d lat: %w", line, ErrBadRecord)
		}
		lng, err := strconv.ParseFloat(rec[col["lng"]], 64)
		if err != nil {
			return nil, fmt.Errorf("station: CSV line %d lng: %w", line, ErrBadRecord)
		}

		s := Station{
			ID:    rec[col["id"]],
			Name:  rec[col["station_name"]],
			Coord: geo.Coordinate{Lat: lat, Lon: lng},
		}
		if err := s.Coord.Validate(); err != nil {
			return nil, fmt.Errorf("station: CSV line %d: %w", line, err)
		}
		stations = append(stations, s)
	}

	if len(stations) == 0 {
		return nil, ErrNoStations
	}

	return stations, nil
}

// supplyDocument mirrors the GBFS-style supply JSON envelope.
type supplyDocument struct {
	Data struct {
		Supply struct {
			Stations []struct {
				StationID   string `json:"stationId"`
				StationName string `json:"stationName"`
				Location    struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"stations"`
		} `json:"supply"`
	} `json:"data"`
}

// ReadSupplyJSON parses stations from a GBFS-style supply document. Stations
// without a stationId fall back to their position index as ID.
func ReadSupplyJSON(r io.Reader) ([]Station, error) {
	var doc supplyDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("station: decoding supply JSON: %w", err)
	}

	raw := doc.Data.Supply.Stations
	if len(raw) == 0 {
		return nil, ErrNoStations
	}

	stations := make([]Station, 0, len(raw))
	for i, rs := range raw {
		s := Station{
			ID:    rs.StationID,
			Name:  rs.StationName,
			Coord: geo.Coordinate{Lat: rs.Location.Lat, Lon: rs.Location.Lng},
		}
		if s.ID == "" {
			s.ID = strconv.Itoa(i)
		}
		if err := s.Coord.Validate(); err != nil {
			return nil, fmt.Errorf("station: station %q: %w", s.Name, err)
		}
		stations = append(stations, s)
	}

	return stations, nil
}

// LoadFile reads stations from path, picking the parser by extension
// (.json → supply JSON, anything else → CSV).
func LoadFile(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("station: %w", err)
	}
	defer f.Close()

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		return ReadSupplyJSON(f)
	}

	return ReadCSV(f)
}
