package model

import (
	"fmt"

	"greencorridor/geo"
)

// LegToleranceM is how far (in meters) a leg endpoint may sit from the
// patient position and still be considered coincident with it. Provider
// geometry snaps to the road network, so exact equality cannot be required.
const LegToleranceM = 25.0

// Route is an ordered sequence of waypoints with provider-reported totals.
// Routes are immutable once computed.
type Route struct {
	Waypoints []geo.Position `json:"waypoints"`
	DistanceM float64        `json:"distance_m"`
	DurationS float64        `json:"duration_s"`
}

// NewRoute validates waypoint count and returns an immutable route value.
func NewRoute(waypoints []geo.Position, distanceM, durationS float64) (*Route, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: %d waypoints", ErrInvalidRoute, len(waypoints))
	}
	wp := make([]geo.Position, len(waypoints))
	copy(wp, waypoints)
	return &Route{Waypoints: wp, DistanceM: distanceM, DurationS: durationS}, nil
}

// Start returns the first waypoint.
func (r *Route) Start() geo.Position { return r.Waypoints[0] }

// End returns the last waypoint.
func (r *Route) End() geo.Position { return r.Waypoints[len(r.Waypoints)-1] }

// PathDistanceM sums the waypoint-to-waypoint great-circle distances. Used
// when the provider total is absent or implausible.
func (r *Route) PathDistanceM() float64 {
	total := 0.0
	for i := 0; i+1 < len(r.Waypoints); i++ {
		total += geo.DistanceM(r.Waypoints[i], r.Waypoints[i+1])
	}
	return total
}

// ValidateLegPair enforces the leg-joint invariant: leg1 must end at the
// patient position and leg2 must start there, both within LegToleranceM.
func ValidateLegPair(leg1, leg2 *Route, patient geo.Position) error {
	if leg1 == nil || leg2 == nil {
		return fmt.Errorf("%w: missing leg", ErrInvalidRoute)
	}
	if d := geo.DistanceM(leg1.End(), patient); d > LegToleranceM {
		return fmt.Errorf("%w: leg1 ends %.0fm from patient", ErrInvalidRoute, d)
	}
	if d := geo.DistanceM(leg2.Start(), patient); d > LegToleranceM {
		return fmt.Errorf("%w: leg2 starts %.0fm from patient", ErrInvalidRoute, d)
	}
	return nil
}

// ConcatWaypoints joins leg waypoints in traversal order, dropping the
// duplicated joint point between consecutive legs.
func ConcatWaypoints(legs ...*Route) []geo.Position {
	out := make([]geo.Position, 0)
	for _, leg := range legs {
		if leg == nil {
			continue
		}
		wp := leg.Waypoints
		if len(out) > 0 && len(wp) > 0 && out[len(out)-1] == wp[0] {
			wp = wp[1:]
		}
		out = append(out, wp...)
	}
	return out
}
