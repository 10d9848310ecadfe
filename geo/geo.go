// Package geo holds the distance and interpolation primitives shared by the
// matcher, corridor manager and movement simulator.
package geo

import "math"

const earthRadiusKm = 6371.0

// Position is a WGS84 coordinate pair. The internal convention everywhere in
// this module is (lat, lng); routing providers that expect (lng, lat) are
// converted at their boundary.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the great-circle distance between a and b in kilometers
// using the Haversine formula.
func DistanceKm(a, b Position) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// DistanceM returns the great-circle distance between a and b in meters.
func DistanceM(a, b Position) float64 {
	return DistanceKm(a, b) * 1000
}

// Interpolate returns the point a fraction t along the segment from s to e,
// linear in latitude/longitude space. That approximation is fine at city
// scale. t=0 yields s and t=1 yields e exactly.
func Interpolate(s, e Position, t float64) Position {
	if t <= 0 {
		return s
	}
	if t >= 1 {
		return e
	}
	return Position{
		Lat: s.Lat + (e.Lat-s.Lat)*t,
		Lng: s.Lng + (e.Lng-s.Lng)*t,
	}
}

// BearingDeg returns the initial bearing from a toward b in degrees,
// normalized to [0, 360).
func BearingDeg(a, b Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Position) Position {
	return Position{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}
