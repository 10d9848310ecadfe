package sim

import (
	"time"

	"greencorridor/geo"
)

// Event is a marker for all simulation events emitted by the Simulator.
type Event interface{ isEvent() }

// MovementStartedEvent signals a new leg registered for an ambulance.
type MovementStartedEvent struct {
	AmbulanceID string       `json:"ambulance_id"`
	Waypoints   int          `json:"waypoints"`
	ETASeconds  float64      `json:"eta_seconds"`
	Position    geo.Position `json:"position"`
}

func (MovementStartedEvent) isEvent() {}

// PositionEvent carries an in-transit position update.
type PositionEvent struct {
	AmbulanceID string       `json:"ambulance_id"`
	Position    geo.Position `json:"position"`
	Index       int          `json:"index"`
	Progress    float64      `json:"progress"`
}

func (PositionEvent) isEvent() {}

// LegCompletedEvent signals the ambulance reached the final waypoint of its
// current leg. The orchestrator observes this to advance the emergency
// phase.
type LegCompletedEvent struct {
	AmbulanceID string       `json:"ambulance_id"`
	Position    geo.Position `json:"position"`
	At          time.Time    `json:"at"`
}

func (LegCompletedEvent) isEvent() {}

// MovementStoppedEvent signals an explicit cancellation of an in-flight leg.
type MovementStoppedEvent struct {
	AmbulanceID string `json:"ambulance_id"`
}

func (MovementStoppedEvent) isEvent() {}
