// Package oracle defines the capability-style boundary between the planning
// core and whatever supplies travel costs and concrete paths.
//
// Two families of implementations exist:
//
//   - GreatCircle (this package): pure, deterministic, no I/O. Costs are
//     haversine distances; directions are straight segments.
//   - Network oracles (osrm, gmaps): query an external routing service and may
//     fail with ErrUnavailable or ErrNoRoute.
//
// The core selects an implementation via configuration and never branches on a
// mode flag; it only sees the interfaces below.
package oracle
