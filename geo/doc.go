// Package geo provides the coordinate primitive and great-circle distance used
// throughout veloroute.
//
// Everything here is pure: no I/O, no global state, deterministic output for
// identical input. Distances are in meters on a sphere of mean Earth radius.
//
// Use this package when you need a straight-line cost between two stations;
// use osrm or gmaps when you need street-network costs.
package geo
