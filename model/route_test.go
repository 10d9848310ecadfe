package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencorridor/geo"
)

func TestNewRouteRejectsShortRoutes(t *testing.T) {
	_, err := NewRoute(nil, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = NewRoute([]geo.Position{{Lat: 18.5, Lng: 73.8}}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestNewRouteCopiesWaypoints(t *testing.T) {
	wp := []geo.Position{{Lat: 18.5, Lng: 73.8}, {Lat: 18.6, Lng: 73.9}}
	r, err := NewRoute(wp, 100, 10)
	require.NoError(t, err)

	wp[0].Lat = 0
	assert.Equal(t, 18.5, r.Start().Lat, "caller mutation does not leak into the route")
}

func TestValidateLegPair(t *testing.T) {
	patient := geo.Position{Lat: 18.52, Lng: 73.85}
	leg1 := &Route{Waypoints: []geo.Position{{Lat: 18.50, Lng: 73.84}, patient}}
	leg2 := &Route{Waypoints: []geo.Position{patient, {Lat: 18.54, Lng: 73.87}}}

	assert.NoError(t, ValidateLegPair(leg1, leg2, patient))

	// 0.01 degrees of latitude is roughly 1.1 km, far outside tolerance.
	off := &Route{Waypoints: []geo.Position{{Lat: 18.50, Lng: 73.84}, {Lat: 18.53, Lng: 73.85}}}
	assert.ErrorIs(t, ValidateLegPair(off, leg2, patient), ErrInvalidRoute)
	assert.ErrorIs(t, ValidateLegPair(leg1, off, patient), ErrInvalidRoute)
	assert.ErrorIs(t, ValidateLegPair(nil, leg2, patient), ErrInvalidRoute)
}

func TestConcatWaypointsDropsJointDuplicate(t *testing.T) {
	joint := geo.Position{Lat: 18.52, Lng: 73.85}
	leg1 := &Route{Waypoints: []geo.Position{{Lat: 18.50, Lng: 73.84}, joint}}
	leg2 := &Route{Waypoints: []geo.Position{joint, {Lat: 18.54, Lng: 73.87}}}

	wp := ConcatWaypoints(leg1, leg2)
	require.Len(t, wp, 3)
	assert.Equal(t, joint, wp[1])
}

func TestPhaseTerminal(t *testing.T) {
	assert.True(t, PhaseCompleted.Terminal())
	assert.True(t, PhaseCancelled.Terminal())
	assert.False(t, PhaseTransporting.Terminal())
	assert.False(t, PhaseIdle.Terminal())
}

func TestHospitalHasSpecialty(t *testing.T) {
	h := &Hospital{Specialties: []string{"trauma", "cardiac"}}
	assert.True(t, h.HasSpecialty("trauma"))
	assert.True(t, h.HasSpecialty("Cardiac"), "matching is case-insensitive")
	assert.True(t, h.HasSpecialty(""), "empty query matches every hospital")
	assert.False(t, h.HasSpecialty("neuro"))
}

func TestSignalLaneHelpers(t *testing.T) {
	s := &Signal{Lanes: []Lane{
		{Direction: "north", State: LaneRed},
		{Direction: "south", State: LaneGreen},
	}}
	assert.False(t, s.AllLanes(LaneGreen))
	s.SetAllLanes(LaneGreen)
	assert.True(t, s.AllLanes(LaneGreen))

	c := s.Clone()
	c.Lanes[0].State = LaneRed
	assert.True(t, s.AllLanes(LaneGreen), "clone does not share lane storage")
}
