package dispatch

import (
	"github.com/anggasct/fluo"
	"github.com/sirupsen/logrus"

	"greencorridor/model"
)

// Lifecycle event names.
const (
	evDispatch       = "dispatch"
	evAbort          = "abort"
	evEnRoute        = "en_route"
	evArriveScene    = "arrive_scene"
	evBeginTransport = "begin_transport"
	evArriveHospital = "arrive_hospital"
	evCancel         = "cancel"
)

// buildLifecycle defines the per-emergency state machine. State ids reuse
// the model.Phase strings so the machine's current state maps onto the
// emergency record without translation. "cancel" is reachable from every
// non-terminal state except idle (an idle machine has nothing to cancel).
func buildLifecycle() fluo.MachineDefinition {
	b := fluo.NewMachine()

	b.State(string(model.PhaseIdle)).Initial().
		To(string(model.PhaseDispatching)).On(evDispatch)

	b.State(string(model.PhaseDispatching)).
		To(string(model.PhaseIdle)).On(evAbort).
		To(string(model.PhaseEnRouteToPatient)).On(evEnRoute).
		To(string(model.PhaseCancelled)).On(evCancel)

	b.State(string(model.PhaseEnRouteToPatient)).
		To(string(model.PhaseAtScene)).On(evArriveScene).
		To(string(model.PhaseCancelled)).On(evCancel)

	b.State(string(model.PhaseAtScene)).
		To(string(model.PhaseTransporting)).On(evBeginTransport).
		To(string(model.PhaseCancelled)).On(evCancel)

	b.State(string(model.PhaseTransporting)).
		To(string(model.PhaseCompleted)).On(evArriveHospital).
		To(string(model.PhaseCancelled)).On(evCancel)

	b.State(string(model.PhaseCompleted)).Final()
	b.State(string(model.PhaseCancelled)).Final()

	return b.Build()
}

// phaseObserver logs every lifecycle transition for one emergency.
type phaseObserver struct {
	fluo.BaseObserver
	log *logrus.Entry
}

func (o *phaseObserver) OnTransition(from, to string, event fluo.Event, ctx fluo.Context) {
	name := ""
	if event != nil {
		name = event.GetName()
	}
	o.log.WithFields(logrus.Fields{"from": from, "to": to, "event": name}).Info("phase transition")
}
