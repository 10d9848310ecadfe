// Package store defines the persistence collaborator contract the dispatch
// core depends on, plus an in-memory reference implementation. Real
// deployments put a managed backend behind the same interface.
package store

import (
	"time"

	"greencorridor/model"
)

// LogEntry is one record in the append-only event log.
type LogEntry struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	EmergencyID string         `json:"emergency_id,omitempty"`
	AmbulanceID string         `json:"ambulance_id,omitempty"`
	SignalID    string         `json:"signal_id,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
	At          time.Time      `json:"at"`
}

// Store is the CRUD surface the core requires. List methods return copies;
// Update methods replace the stored record wholesale (records are small and
// single-writer, so read-modify-write is sufficient).
type Store interface {
	GetAmbulance(id string) (*model.Ambulance, error)
	ListAmbulances() ([]*model.Ambulance, error)
	UpdateAmbulance(a *model.Ambulance) error

	GetHospital(id string) (*model.Hospital, error)
	ListHospitals() ([]*model.Hospital, error)

	GetSignal(id string) (*model.Signal, error)
	ListSignals() ([]*model.Signal, error)
	UpdateSignal(s *model.Signal) error

	GetEmergency(id string) (*model.Emergency, error)
	ListEmergencies() ([]*model.Emergency, error)
	InsertEmergency(e *model.Emergency) error
	UpdateEmergency(e *model.Emergency) error

	AppendEvent(entry LogEntry) error
}
