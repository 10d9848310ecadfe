// Package sim moves every in-transit ambulance along its assigned route on a
// single shared tick. Tick execution is mutually exclusive with registration
// and cancellation, so a stopped movement is never observed by a later tick.
package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"greencorridor/geo"
	"greencorridor/model"
	"greencorridor/store"
)

// DefaultTickInterval is the scheduler period.
const DefaultTickInterval = time.Second

// defaultSpeedKmh is used when a movement is started with no usable speed.
const defaultSpeedKmh = 50.0

// Simulator holds the Movement registry keyed by ambulance id and drives it
// with one time.Ticker. The ticker starts lazily with the first movement and
// stops as soon as the registry drains, so an idle simulator holds no timer.
type Simulator struct {
	store    store.Store
	log      *logrus.Entry
	interval time.Duration

	mu       sync.Mutex
	registry map[string]*model.Movement
	running  bool
	quit     chan struct{}

	events chan Event
}

// New returns a simulator ticking at the given interval; interval <= 0
// selects DefaultTickInterval.
func New(st store.Store, interval time.Duration, log *logrus.Logger) *Simulator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Simulator{
		store:    st,
		log:      log.WithField("component", "sim"),
		interval: interval,
		registry: make(map[string]*model.Movement),
		events:   make(chan Event, 256),
	}
}

// Events returns the stream of simulation events. It has a single consumer:
// the dispatch orchestrator, which fans out to any additional listeners.
func (s *Simulator) Events() <-chan Event { return s.events }

// StartMovement registers a new Movement for the ambulance at waypoint 0 and
// progress 0, replacing any previous one, and starts the shared scheduler if
// it is not already running. The ETA is the total route distance at the
// given constant speed. Routes with fewer than two waypoints are rejected
// with ErrInvalidRoute.
func (s *Simulator) StartMovement(ambulanceID string, route *model.Route, speedKmh float64) error {
	if route == nil || len(route.Waypoints) < 2 {
		return fmt.Errorf("movement for %s: %w", ambulanceID, model.ErrInvalidRoute)
	}
	if speedKmh <= 0 {
		speedKmh = defaultSpeedKmh
	}
	distM := route.DistanceM
	if distM <= 0 {
		distM = route.PathDistanceM()
	}
	etaSeconds := distM / (speedKmh * 1000 / 3600)
	if etaSeconds < s.interval.Seconds() {
		etaSeconds = s.interval.Seconds()
	}

	mv := &model.Movement{
		AmbulanceID: ambulanceID,
		Route:       route,
		Index:       0,
		Progress:    0,
		ETASeconds:  etaSeconds,
		SpeedKmh:    speedKmh,
	}

	s.mu.Lock()
	s.registry[ambulanceID] = mv
	if !s.running {
		s.running = true
		s.quit = make(chan struct{})
		go s.loop(s.quit)
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"ambulance": ambulanceID,
		"waypoints": len(route.Waypoints),
		"eta_s":     etaSeconds,
	}).Info("movement started")
	s.emit(MovementStartedEvent{
		AmbulanceID: ambulanceID,
		Waypoints:   len(route.Waypoints),
		ETASeconds:  etaSeconds,
		Position:    route.Start(),
	})
	return nil
}

// StopMovement deregisters the ambulance immediately. The removal is
// synchronous: once StopMovement returns, no tick will advance the
// ambulance. Unknown ids are a no-op.
func (s *Simulator) StopMovement(ambulanceID string) {
	s.mu.Lock()
	_, ok := s.registry[ambulanceID]
	if ok {
		delete(s.registry, ambulanceID)
	}
	s.maybeHaltLocked()
	s.mu.Unlock()

	if ok {
		s.log.WithField("ambulance", ambulanceID).Info("movement stopped")
		s.emit(MovementStoppedEvent{AmbulanceID: ambulanceID})
	}
}

// CurrentPosition returns the interpolated position of an in-transit
// ambulance, or ErrNotFound when no movement is registered for the id.
func (s *Simulator) CurrentPosition(ambulanceID string) (geo.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mv, ok := s.registry[ambulanceID]
	if !ok {
		return geo.Position{}, fmt.Errorf("movement for %s: %w", ambulanceID, model.ErrNotFound)
	}
	return movementPosition(mv), nil
}

// Moving reports whether a Movement is registered for the ambulance.
func (s *Simulator) Moving(ambulanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.registry[ambulanceID]
	return ok
}

// loop drives ticks until the registry drains or quit closes.
func (s *Simulator) loop(quit chan struct{}) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-quit:
			return
		case <-t.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick advances every registered movement by one interval and reports
// whether the scheduler should keep running. Iteration order is sorted by
// ambulance id so a tick is deterministic.
func (s *Simulator) tick() bool {
	var out []Event

	s.mu.Lock()
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		mv := s.registry[id]
		mv.Progress += s.interval.Seconds() / mv.ETASeconds
		if mv.Progress >= 1 {
			mv.Index++
			mv.Progress = 0
			if mv.Index >= len(mv.Route.Waypoints)-1 {
				final := mv.Route.End()
				delete(s.registry, id)
				s.writeAmbulancePosition(id, final, final)
				out = append(out, LegCompletedEvent{AmbulanceID: id, Position: final, At: time.Now()})
				continue
			}
		}
		pos := movementPosition(mv)
		s.writeAmbulancePosition(id, pos, mv.Route.Waypoints[mv.Index+1])
		out = append(out, PositionEvent{AmbulanceID: id, Position: pos, Index: mv.Index, Progress: mv.Progress})
	}
	keep := !s.maybeHaltLocked()
	s.mu.Unlock()

	for _, e := range out {
		s.emit(e)
	}
	return keep
}

// maybeHaltLocked stops the scheduler when the registry is empty. Caller
// holds s.mu. Returns true when the scheduler was halted.
func (s *Simulator) maybeHaltLocked() bool {
	if !s.running || len(s.registry) > 0 {
		return false
	}
	s.running = false
	close(s.quit)
	s.quit = nil
	return true
}

// movementPosition interpolates within the current segment.
func movementPosition(mv *model.Movement) geo.Position {
	wp := mv.Route.Waypoints
	if mv.Index >= len(wp)-1 {
		return wp[len(wp)-1]
	}
	return geo.Interpolate(wp[mv.Index], wp[mv.Index+1], mv.Progress)
}

// writeAmbulancePosition persists the interpolated position and heading back
// to the ambulance record. A store failure here is logged and skipped: the
// in-memory movement keeps advancing regardless.
func (s *Simulator) writeAmbulancePosition(ambulanceID string, pos, toward geo.Position) {
	amb, err := s.store.GetAmbulance(ambulanceID)
	if err != nil {
		s.log.WithError(err).WithField("ambulance", ambulanceID).Warn("position write skipped")
		return
	}
	amb.Position = pos
	amb.HeadingDeg = geo.BearingDeg(pos, toward)
	if err := s.store.UpdateAmbulance(amb); err != nil {
		s.log.WithError(err).WithField("ambulance", ambulanceID).Warn("position write failed")
	}
}

// emit delivers an event, dropping it when the buffer is full and logging
// the drop. Lifecycle-critical completion events always block instead: the
// orchestrator must not miss them.
func (s *Simulator) emit(e Event) {
	if _, critical := e.(LegCompletedEvent); critical {
		s.events <- e
		return
	}
	select {
	case s.events <- e:
	default:
		s.log.Debug("event buffer full, dropping")
	}
}
