// Package dispatch sequences the emergency lifecycle: resource matching,
// route planning, corridor activation, movement simulation, and teardown.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anggasct/fluo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"greencorridor/corridor"
	"greencorridor/geo"
	"greencorridor/match"
	"greencorridor/model"
	"greencorridor/routing"
	"greencorridor/sim"
	"greencorridor/store"
)

// Request is a dispatch request for a patient location. Specialty filters
// hospital selection and may be empty.
type Request struct {
	PatientPos geo.Position   `json:"patient_position"`
	Specialty  string         `json:"specialty,omitempty"`
	Priority   model.Priority `json:"priority,omitempty"`
}

// run is the live coordination state for one active emergency.
type run struct {
	machine   fluo.Machine
	emergency *model.Emergency
}

// Orchestrator owns the emergency state machines and is the single consumer
// of the simulator's event stream. All ambulance and emergency mutations go
// through it (or through the simulator it controls), which keeps the
// single-writer discipline of the data model.
type Orchestrator struct {
	store     store.Store
	matcher   *match.Matcher
	planner   *routing.Planner
	corridors *corridor.Manager
	sim       *sim.Simulator
	log       *logrus.Entry
	lifecycle fluo.MachineDefinition

	mu          sync.Mutex
	runs        map[string]*run   // emergency id -> run
	byAmbulance map[string]string // ambulance id -> emergency id

	subMu sync.Mutex
	subs  map[chan any]struct{}
}

// New wires the orchestrator to its collaborators. Call Run to start
// consuming simulator events.
func New(st store.Store, matcher *match.Matcher, planner *routing.Planner,
	corridors *corridor.Manager, simulator *sim.Simulator, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:       st,
		matcher:     matcher,
		planner:     planner,
		corridors:   corridors,
		sim:         simulator,
		log:         log.WithField("component", "dispatch"),
		lifecycle:   buildLifecycle(),
		runs:        make(map[string]*run),
		byAmbulance: make(map[string]string),
		subs:        make(map[chan any]struct{}),
	}
}

// Run consumes simulator events until ctx is cancelled. It must be running
// for leg completions to advance emergency phases.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.sim.Events():
			o.publish(ev)
			if leg, ok := ev.(sim.LegCompletedEvent); ok {
				o.handleLegComplete(leg)
			}
		}
	}
}

// StartEmergency runs the full dispatch sequence. On ErrResourceUnavailable
// nothing is mutated and the machine returns to idle. Route computation
// cannot fail (the planner falls back internally); persistence failures are
// logged and do not abort the dispatch.
func (o *Orchestrator) StartEmergency(ctx context.Context, req Request) (*model.Emergency, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	emID := uuid.NewString()
	machine := o.lifecycle.CreateInstance()
	machine.AddObserver(&phaseObserver{log: o.log.WithField("emergency", emID)})
	if err := machine.Start(); err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	machine.SendEvent(evDispatch, nil)

	amb, err := o.matcher.NearestAvailableAmbulance(req.PatientPos)
	if err != nil {
		machine.SendEvent(evAbort, nil)
		return nil, err
	}
	hosp, err := o.matcher.NearestHospital(req.PatientPos, req.Specialty)
	if err != nil {
		machine.SendEvent(evAbort, nil)
		return nil, err
	}

	leg1, leg2 := o.planLegs(ctx, amb.Position, req.PatientPos, hosp.Position)

	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityUrgent
	}
	em := &model.Emergency{
		ID:          emID,
		PatientPos:  req.PatientPos,
		AmbulanceID: amb.ID,
		HospitalID:  hosp.ID,
		Status:      model.EmergencyActive,
		Priority:    priority,
		Phase:       model.PhaseDispatching,
		ETAMinutes:  (leg1.DurationS + leg2.DurationS) / 60,
		DistanceKm:  (leg1.DistanceM + leg2.DistanceM) / 1000,
		Leg1:        leg1,
		Leg2:        leg2,
		CreatedAt:   time.Now(),
	}
	if err := o.store.InsertEmergency(em); err != nil {
		o.log.WithError(err).WithField("emergency", em.ID).Error("emergency insert failed, proceeding in memory")
	}

	amb.Status = model.AmbulanceEnRoute
	amb.AssignedHospitalID = hosp.ID
	if err := o.store.UpdateAmbulance(amb); err != nil {
		o.log.WithError(err).WithField("ambulance", amb.ID).Error("ambulance update failed")
	}

	signals, err := o.corridors.IdentifySignalsOnRoute(model.ConcatWaypoints(leg1, leg2))
	if err != nil {
		o.log.WithError(err).Error("signal identification failed, dispatching without corridor")
		signals = nil
	}
	if _, err := o.corridors.Activate(em.ID, amb.ID, signals); err != nil {
		o.log.WithError(err).WithField("emergency", em.ID).Error("corridor activation incomplete")
	}

	if err := o.sim.StartMovement(amb.ID, leg1, amb.SpeedKmh); err != nil {
		// Leg aborted; the emergency stays in its current phase and the
		// failure is surfaced. Release what was claimed.
		_ = o.corridors.Deactivate(em.ID)
		amb.Status = model.AmbulanceAvailable
		amb.AssignedHospitalID = ""
		_ = o.store.UpdateAmbulance(amb)
		snapshot := *em
		return &snapshot, err
	}

	machine.SendEvent(evEnRoute, nil)
	o.setPhase(em, model.PhaseEnRouteToPatient)
	o.runs[em.ID] = &run{machine: machine, emergency: em}
	o.byAmbulance[amb.ID] = em.ID

	o.appendEvent("emergency_dispatched", em, map[string]any{
		"hospital":    hosp.ID,
		"eta_minutes": em.ETAMinutes,
		"signals":     len(signals),
	})
	o.log.WithFields(logrus.Fields{
		"emergency": em.ID,
		"ambulance": amb.ID,
		"hospital":  hosp.ID,
		"signals":   len(signals),
	}).Info("emergency dispatched")
	// Callers get a snapshot; the live record keeps mutating as legs finish.
	snapshot := *em
	return &snapshot, nil
}

// planLegs computes both legs, each falling back to a synthetic route on
// provider failure. If provider geometry does not meet the patient position
// within tolerance the offending leg is replaced by its synthetic
// equivalent, which meets it exactly.
func (o *Orchestrator) planLegs(ctx context.Context, from, patient, to geo.Position) (*model.Route, *model.Route) {
	var leg1, leg2 *model.Route
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leg1 = o.planner.ComputeRoute(gctx, from, patient)
		return nil
	})
	g.Go(func() error {
		leg2 = o.planner.ComputeRoute(gctx, patient, to)
		return nil
	})
	_ = g.Wait()

	if err := model.ValidateLegPair(leg1, leg2, patient); err != nil {
		o.log.WithError(err).Warn("leg joint off tolerance, substituting synthetic legs")
		if geo.DistanceM(leg1.End(), patient) > model.LegToleranceM {
			leg1 = routing.SyntheticRoute(from, patient)
		}
		if geo.DistanceM(leg2.Start(), patient) > model.LegToleranceM {
			leg2 = routing.SyntheticRoute(patient, to)
		}
	}
	return leg1, leg2
}

// handleLegComplete advances the emergency whose ambulance finished a leg.
func (o *Orchestrator) handleLegComplete(ev sim.LegCompletedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	emID, ok := o.byAmbulance[ev.AmbulanceID]
	if !ok {
		return // movement cancelled between completion and handling
	}
	r := o.runs[emID]
	if r == nil {
		return
	}

	switch r.emergency.Phase {
	case model.PhaseEnRouteToPatient:
		r.machine.SendEvent(evArriveScene, nil)
		o.setPhase(r.emergency, model.PhaseAtScene)
		o.setAmbulanceStatus(ev.AmbulanceID, model.AmbulanceAtScene)
		o.appendEvent("ambulance_at_scene", r.emergency, nil)

		if err := o.sim.StartMovement(ev.AmbulanceID, r.emergency.Leg2, o.ambulanceSpeed(ev.AmbulanceID)); err != nil {
			o.log.WithError(err).WithField("emergency", emID).Error("transport leg failed to start")
			return
		}
		r.machine.SendEvent(evBeginTransport, nil)
		o.setPhase(r.emergency, model.PhaseTransporting)
		o.setAmbulanceStatus(ev.AmbulanceID, model.AmbulanceTransporting)
		o.appendEvent("transport_started", r.emergency, nil)

	case model.PhaseTransporting:
		r.machine.SendEvent(evArriveHospital, nil)
		o.finishLocked(r, model.EmergencyCompleted, model.PhaseCompleted)

	default:
		o.log.WithFields(logrus.Fields{
			"emergency": emID,
			"phase":     r.emergency.Phase,
		}).Warn("leg completion in unexpected phase ignored")
	}
}

// EndEmergency tears down an emergency from any phase: the in-flight
// movement stops, the corridor is deactivated, and the ambulance returns to
// available. Unknown or already-terminal ids are a no-op, so duplicate
// cancellations are harmless.
func (o *Orchestrator) EndEmergency(emergencyID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.runs[emergencyID]
	if !ok {
		return
	}
	o.sim.StopMovement(r.emergency.AmbulanceID)
	r.machine.SendEvent(evCancel, nil)
	o.finishLocked(r, model.EmergencyCancelled, model.PhaseCancelled)
}

// finishLocked is the shared teardown for completion and cancellation.
// Caller holds o.mu.
func (o *Orchestrator) finishLocked(r *run, status model.EmergencyStatus, phase model.Phase) {
	em := r.emergency
	if err := o.corridors.Deactivate(em.ID); err != nil {
		o.log.WithError(err).WithField("emergency", em.ID).Error("corridor teardown incomplete")
	}

	amb, err := o.store.GetAmbulance(em.AmbulanceID)
	if err == nil {
		amb.Status = model.AmbulanceAvailable
		amb.AssignedHospitalID = ""
		if err := o.store.UpdateAmbulance(amb); err != nil {
			o.log.WithError(err).WithField("ambulance", em.AmbulanceID).Error("ambulance release failed")
		}
	}

	now := time.Now()
	em.Status = status
	em.EndedAt = &now
	o.setPhase(em, phase)

	delete(o.runs, em.ID)
	delete(o.byAmbulance, em.AmbulanceID)

	o.appendEvent("emergency_ended", em, map[string]any{"status": string(status)})
	o.log.WithFields(logrus.Fields{"emergency": em.ID, "status": status}).Info("emergency ended")
	o.publish(PhaseEvent{EmergencyID: em.ID, Phase: phase})
}

// Phase returns the current lifecycle phase for an emergency, falling back
// to the persisted record for terminal ones.
func (o *Orchestrator) Phase(emergencyID string) (model.Phase, error) {
	o.mu.Lock()
	r, ok := o.runs[emergencyID]
	o.mu.Unlock()
	if ok {
		return r.emergency.Phase, nil
	}
	em, err := o.store.GetEmergency(emergencyID)
	if err != nil {
		return "", err
	}
	return em.Phase, nil
}

// Active reports whether the emergency is still being coordinated.
func (o *Orchestrator) Active(emergencyID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.runs[emergencyID]
	return ok
}

func (o *Orchestrator) setPhase(em *model.Emergency, phase model.Phase) {
	em.Phase = phase
	if err := o.store.UpdateEmergency(em); err != nil {
		o.log.WithError(err).WithField("emergency", em.ID).Warn("phase persist failed")
	}
	o.publish(PhaseEvent{EmergencyID: em.ID, Phase: phase})
}

func (o *Orchestrator) setAmbulanceStatus(id string, status model.AmbulanceStatus) {
	amb, err := o.store.GetAmbulance(id)
	if err != nil {
		o.log.WithError(err).WithField("ambulance", id).Warn("status read failed")
		return
	}
	amb.Status = status
	if err := o.store.UpdateAmbulance(amb); err != nil {
		o.log.WithError(err).WithField("ambulance", id).Warn("status persist failed")
	}
}

func (o *Orchestrator) ambulanceSpeed(id string) float64 {
	amb, err := o.store.GetAmbulance(id)
	if err != nil {
		return 0
	}
	return amb.SpeedKmh
}

func (o *Orchestrator) appendEvent(eventType string, em *model.Emergency, detail map[string]any) {
	if err := o.store.AppendEvent(store.LogEntry{
		Type:        eventType,
		EmergencyID: em.ID,
		AmbulanceID: em.AmbulanceID,
		Detail:      detail,
	}); err != nil {
		o.log.WithError(err).Warn("event log append failed")
	}
}

// PhaseEvent is published to subscribers on every phase change.
type PhaseEvent struct {
	EmergencyID string      `json:"emergency_id"`
	Phase       model.Phase `json:"phase"`
}

// Subscribe registers a listener for simulator and phase events. The
// returned cancel function must be called to release the channel. Slow
// listeners miss events rather than stall the dispatcher.
func (o *Orchestrator) Subscribe(buffer int) (<-chan any, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan any, buffer)
	o.subMu.Lock()
	o.subs[ch] = struct{}{}
	o.subMu.Unlock()
	cancel := func() {
		o.subMu.Lock()
		delete(o.subs, ch)
		o.subMu.Unlock()
	}
	return ch, cancel
}

func (o *Orchestrator) publish(e any) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for ch := range o.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
