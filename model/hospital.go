package model

import (
	"strings"

	"greencorridor/geo"
)

// Hospital is read-only to the dispatch core; records come from the
// persistence collaborator and are never mutated here.
type Hospital struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Position    geo.Position `json:"position"`
	Specialties []string     `json:"specialties"`
	Beds        int          `json:"beds"`
	Contact     string       `json:"contact,omitempty"`
}

// HasSpecialty reports whether the hospital offers the given specialty,
// case-insensitive. An empty query matches every hospital.
func (h *Hospital) HasSpecialty(specialty string) bool {
	if specialty == "" {
		return true
	}
	for _, s := range h.Specialties {
		if strings.EqualFold(s, specialty) {
			return true
		}
	}
	return false
}
