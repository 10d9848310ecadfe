// Package corridor maps route geometry to traffic signals and toggles their
// emergency override state.
package corridor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"greencorridor/geo"
	"greencorridor/model"
	"greencorridor/store"
)

// DefaultBufferM is the capture radius around each route waypoint.
const DefaultBufferM = 100.0

// Manager owns signal override state. When two corridors claim the same
// signal the most recently activated one wins; release restores red rather
// than the previous timing plan. The normal-timing subsystem takes back over
// out of band.
type Manager struct {
	store   store.Store
	log     *logrus.Entry
	bufferM float64

	mu     sync.Mutex
	active map[string]*model.Corridor // keyed by emergency id
}

// NewManager returns a corridor manager with the given capture buffer;
// bufferM <= 0 selects DefaultBufferM.
func NewManager(st store.Store, bufferM float64, log *logrus.Logger) *Manager {
	if bufferM <= 0 {
		bufferM = DefaultBufferM
	}
	return &Manager{
		store:   st,
		log:     log.WithField("component", "corridor"),
		bufferM: bufferM,
		active:  make(map[string]*model.Corridor),
	}
}

// signalHit pairs a signal with the route waypoint it sits closest to.
type signalHit struct {
	signal       *model.Signal
	closestIndex int
}

// IdentifySignalsOnRoute returns every known signal lying within the buffer
// of at least one waypoint, ordered by the index of the waypoint each signal
// is closest to. That index order defines "order along the route";
// geometric sorting would misorder signals on looping routes. Matching is
// against discrete waypoints, not the continuous polyline, on purpose:
// switching to point-to-segment distance changes which signals are captured.
func (m *Manager) IdentifySignalsOnRoute(waypoints []geo.Position) ([]*model.Signal, error) {
	signals, err := m.store.ListSignals()
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	hits := make([]signalHit, 0)
	for _, sig := range signals {
		closest := -1
		closestDist := 0.0
		for i, wp := range waypoints {
			d := geo.DistanceM(sig.Position, wp)
			if d > m.bufferM {
				continue
			}
			if closest == -1 || d < closestDist {
				closest = i
				closestDist = d
			}
		}
		if closest >= 0 {
			hits = append(hits, signalHit{signal: sig, closestIndex: closest})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].closestIndex != hits[j].closestIndex {
			return hits[i].closestIndex < hits[j].closestIndex
		}
		return hits[i].signal.ID < hits[j].signal.ID
	})
	out := make([]*model.Signal, len(hits))
	for i, h := range hits {
		out[i] = h.signal
	}
	return out, nil
}

// Activate forces every signal in order to all-lanes-green with the
// emergency flag set, recording a transition event per signal. Re-activating
// a corridor that is already active refreshes signal state but is otherwise
// a no-op.
func (m *Manager) Activate(emergencyID, ambulanceID string, signals []*model.Signal) (*model.Corridor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(signals))
	for i, s := range signals {
		ids[i] = s.ID
	}
	cor := &model.Corridor{
		EmergencyID: emergencyID,
		AmbulanceID: ambulanceID,
		SignalIDs:   ids,
		BufferM:     m.bufferM,
	}

	for _, sig := range signals {
		prev := signalStateSummary(sig)
		alreadyGreen := sig.Emergency && sig.AllLanes(model.LaneGreen)
		sig.SetAllLanes(model.LaneGreen)
		sig.Emergency = true
		if err := m.store.UpdateSignal(sig); err != nil {
			return nil, fmt.Errorf("activate signal %s: %w", sig.ID, err)
		}
		if alreadyGreen {
			continue
		}
		if err := m.store.AppendEvent(store.LogEntry{
			Type:        "corridor_signal_green",
			EmergencyID: emergencyID,
			SignalID:    sig.ID,
			Detail:      map[string]any{"previous": prev},
		}); err != nil {
			m.log.WithError(err).WithField("signal", sig.ID).Warn("event log append failed")
		}
	}

	m.active[emergencyID] = cor
	m.log.WithFields(logrus.Fields{
		"emergency": emergencyID,
		"signals":   len(signals),
	}).Info("corridor activated")
	return cor, nil
}

// Deactivate resets each corridor signal to all-lanes-red and clears the
// emergency flag. Individual signal failures are logged and skipped so one
// broken signal cannot block teardown of the rest; the first error is
// returned after all signals were attempted.
func (m *Manager) Deactivate(emergencyID string) error {
	m.mu.Lock()
	cor, ok := m.active[emergencyID]
	if ok {
		delete(m.active, emergencyID)
	}
	m.mu.Unlock()
	if !ok {
		return nil // already torn down, or never activated
	}

	var firstErr error
	for _, id := range cor.SignalIDs {
		if err := m.resetSignal(emergencyID, id); err != nil {
			m.log.WithError(err).WithField("signal", id).Error("signal reset failed, continuing teardown")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.log.WithFields(logrus.Fields{
		"emergency": emergencyID,
		"signals":   len(cor.SignalIDs),
	}).Info("corridor deactivated")
	return firstErr
}

func (m *Manager) resetSignal(emergencyID, signalID string) error {
	sig, err := m.store.GetSignal(signalID)
	if err != nil {
		return err
	}
	sig.SetAllLanes(model.LaneRed)
	sig.Emergency = false
	if err := m.store.UpdateSignal(sig); err != nil {
		return err
	}
	if err := m.store.AppendEvent(store.LogEntry{
		Type:        "corridor_signal_restored",
		EmergencyID: emergencyID,
		SignalID:    signalID,
	}); err != nil {
		m.log.WithError(err).WithField("signal", signalID).Warn("event log append failed")
	}
	return nil
}

// ActiveCorridor returns the corridor for an emergency, or nil.
func (m *Manager) ActiveCorridor(emergencyID string) *model.Corridor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[emergencyID]
}

// References reports whether any active corridor references the ambulance.
func (m *Manager) References(ambulanceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.active {
		if c.AmbulanceID == ambulanceID {
			return true
		}
	}
	return false
}

func signalStateSummary(s *model.Signal) map[string]string {
	out := make(map[string]string, len(s.Lanes))
	for _, l := range s.Lanes {
		out[l.Direction] = string(l.State)
	}
	return out
}
