package model

import "greencorridor/geo"

// LaneState is the displayed aspect of one approach lane.
type LaneState string

const (
	LaneRed   LaneState = "red"
	LaneAmber LaneState = "amber"
	LaneGreen LaneState = "green"
)

// Lane is a single signalled approach at an intersection.
type Lane struct {
	Direction string    `json:"direction"` // e.g. "north", "south"
	State     LaneState `json:"state"`
}

// Signal is a traffic intersection. Lane states and the emergency flag are
// mutated only by the corridor manager; the normal-timing (GST) subsystem is
// an external collaborator and not represented here.
type Signal struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Position  geo.Position `json:"position"`
	Lanes     []Lane       `json:"lanes"`
	Emergency bool         `json:"emergency"`
}

// SetAllLanes forces every lane to the given state.
func (s *Signal) SetAllLanes(state LaneState) {
	for i := range s.Lanes {
		s.Lanes[i].State = state
	}
}

// AllLanes reports whether every lane currently shows the given state.
func (s *Signal) AllLanes(state LaneState) bool {
	for _, l := range s.Lanes {
		if l.State != state {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can hold a snapshot without sharing
// the lane slice.
func (s *Signal) Clone() *Signal {
	c := *s
	c.Lanes = make([]Lane, len(s.Lanes))
	copy(c.Lanes, s.Lanes)
	return &c
}
