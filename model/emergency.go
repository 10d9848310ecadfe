package model

import (
	"time"

	"greencorridor/geo"
)

// EmergencyStatus is the record-level state, distinct from Phase.
type EmergencyStatus string

const (
	EmergencyActive    EmergencyStatus = "active"
	EmergencyCompleted EmergencyStatus = "completed"
	EmergencyCancelled EmergencyStatus = "cancelled"
)

// Phase is the lifecycle position of an active emergency.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseDispatching      Phase = "dispatching"
	PhaseEnRouteToPatient Phase = "en_route_to_patient"
	PhaseAtScene          Phase = "at_scene"
	PhaseTransporting     Phase = "transporting"
	PhaseCompleted        Phase = "completed"
	PhaseCancelled        Phase = "cancelled"
)

// Terminal reports whether no further phase transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// Priority orders concurrent emergencies; higher is more urgent.
type Priority int

const (
	PriorityRoutine  Priority = 1
	PriorityUrgent   Priority = 2
	PriorityCritical Priority = 3
)

// Emergency is created by the orchestrator on a dispatch request and marked
// completed or cancelled on end.
type Emergency struct {
	ID          string          `json:"id"`
	PatientPos  geo.Position    `json:"patient_position"`
	AmbulanceID string          `json:"ambulance_id"`
	HospitalID  string          `json:"hospital_id"`
	Status      EmergencyStatus `json:"status"`
	Priority    Priority        `json:"priority"`
	Phase       Phase           `json:"phase"`
	ETAMinutes  float64         `json:"eta_minutes"`
	DistanceKm  float64         `json:"distance_km"`
	Leg1        *Route          `json:"leg1,omitempty"`
	Leg2        *Route          `json:"leg2,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

// Corridor is the ordered set of signals held green for one emergency.
// Exactly one corridor exists per active emergency.
type Corridor struct {
	EmergencyID string   `json:"emergency_id"`
	AmbulanceID string   `json:"ambulance_id"`
	SignalIDs   []string `json:"signal_ids"` // in route-traversal order
	BufferM     float64  `json:"buffer_m"`
}

// Movement is the ephemeral per-ambulance simulation state. It exists only
// while the unit is in transit and is removed on leg completion or cancel.
type Movement struct {
	AmbulanceID string
	Route       *Route
	Index       int     // current waypoint index (segment start)
	Progress    float64 // fraction within the current segment, [0,1)
	ETASeconds  float64
	SpeedKmh    float64
}
