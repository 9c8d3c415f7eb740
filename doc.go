// Package veloroute plans an efficient closed round-trip over the stations of a
// bike-share network.
//
// The pipeline, leaves first:
//
//	geo/        — coordinates and great-circle (haversine) distance
//	oracle/     — cost & directions source interfaces + the pure GreatCircle model
//	osrm/       — OSRM HTTP client (route + table endpoints)
//	gmaps/      — Google Maps oracle (Distance Matrix + Directions)
//	cache/      — sqlite-backed pair cache for oracle results
//	costmatrix/ — flat dense N×N cost matrix + concurrent builder
//	tour/       — tour construction (nearest-neighbor, Held–Karp) and
//	              local-search improvement (2-opt / Or-opt)
//	route/      — turn-by-turn materialization of the final order
//	station/    — station records and loaders (CSV, GBFS-style JSON)
//	planner/    — end-to-end orchestration
//
// Data flow: coordinates → costmatrix → initial tour → optimized tour → route.
// The cost matrix is read-only after construction; the tour is owned by exactly
// one stage at a time (builder → constructor → optimizer → materializer).
//
// All blocking operations take a context.Context; the pure algorithm packages
// (geo, costmatrix, tour) perform no I/O and return sentinel errors matched
// with errors.Is.
package veloroute
