package model

import "greencorridor/geo"

// AmbulanceStatus tracks where a unit is in its duty cycle. Status is
// distinct from the Emergency phase: an ambulance can be "returning" after
// the emergency record is already terminal.
type AmbulanceStatus string

const (
	AmbulanceAvailable    AmbulanceStatus = "available"
	AmbulanceEnRoute      AmbulanceStatus = "en_route"
	AmbulanceAtScene      AmbulanceStatus = "at_scene"
	AmbulanceTransporting AmbulanceStatus = "transporting"
	AmbulanceReturning    AmbulanceStatus = "returning"
)

// Ambulance represents an individual emergency vehicle. Status and Position
// are mutated only by the orchestrator and the movement simulator, never
// concurrently (single-writer discipline).
type Ambulance struct {
	ID                 string          `json:"id"`
	CallSign           string          `json:"call_sign"`
	Status             AmbulanceStatus `json:"status"`
	Position           geo.Position    `json:"position"`
	AssignedHospitalID string          `json:"assigned_hospital_id,omitempty"`
	Driver             string          `json:"driver,omitempty"`
	SpeedKmh           float64         `json:"speed_kmh"`
	HeadingDeg         float64         `json:"heading_deg"`
}

// SetSpeedKmh updates the cruising speed (bounded to a reasonable range).
func (a *Ambulance) SetSpeedKmh(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 140 { // safety cap
		v = 140
	}
	a.SpeedKmh = v
}

// Available reports whether the unit can be assigned to a new emergency.
func (a *Ambulance) Available() bool {
	return a.Status == AmbulanceAvailable
}
