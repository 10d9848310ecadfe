// Package match answers nearest-resource queries for the dispatcher.
// Selection is a pure read over the store snapshot; no records are mutated.
package match

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"greencorridor/geo"
	"greencorridor/model"
	"greencorridor/store"
)

// Matcher selects the closest available ambulance and the closest suitable
// hospital for a patient location.
type Matcher struct {
	store store.Store
	log   *logrus.Entry
}

// New returns a matcher reading from st.
func New(st store.Store, log *logrus.Logger) *Matcher {
	return &Matcher{store: st, log: log.WithField("component", "match")}
}

// NearestAvailableAmbulance returns the available ambulance minimizing
// great-circle distance to loc. Ties break on the lowest id so repeated
// queries are deterministic. Returns ErrResourceUnavailable when no unit is
// available.
func (m *Matcher) NearestAvailableAmbulance(loc geo.Position) (*model.Ambulance, error) {
	ambulances, err := m.store.ListAmbulances()
	if err != nil {
		return nil, fmt.Errorf("list ambulances: %w", err)
	}
	var best *model.Ambulance
	bestDist := 0.0
	for _, a := range ambulances {
		if !a.Available() {
			continue
		}
		d := geo.DistanceKm(loc, a.Position)
		if best == nil || d < bestDist || (d == bestDist && a.ID < best.ID) {
			best = a
			bestDist = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no available ambulance: %w", model.ErrResourceUnavailable)
	}
	m.log.WithFields(logrus.Fields{"ambulance": best.ID, "distance_km": bestDist}).Debug("matched ambulance")
	return best, nil
}

// NearestHospital returns the hospital minimizing distance to loc, filtered
// by specialty membership when specialty is non-empty. Ties break on the
// lowest id. Returns ErrResourceUnavailable when the filtered set is empty.
func (m *Matcher) NearestHospital(loc geo.Position, specialty string) (*model.Hospital, error) {
	hospitals, err := m.store.ListHospitals()
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	var best *model.Hospital
	bestDist := 0.0
	for _, h := range hospitals {
		if !h.HasSpecialty(specialty) {
			continue
		}
		d := geo.DistanceKm(loc, h.Position)
		if best == nil || d < bestDist || (d == bestDist && h.ID < best.ID) {
			best = h
			bestDist = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no hospital for specialty %q: %w", specialty, model.ErrResourceUnavailable)
	}
	m.log.WithFields(logrus.Fields{"hospital": best.ID, "distance_km": bestDist}).Debug("matched hospital")
	return best, nil
}
