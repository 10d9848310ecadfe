package sim

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencorridor/geo"
	"greencorridor/model"
	"greencorridor/store"
)

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSim(t *testing.T, interval time.Duration) (*Simulator, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.Seed([]*model.Ambulance{
		{ID: "amb-01", Status: model.AmbulanceEnRoute, Position: geo.Position{Lat: 18.50, Lng: 73.85}},
	}, nil, nil)
	return New(st, interval, quietLog()), st
}

func shortRoute() *model.Route {
	// ~330 m of northing across three waypoints.
	return &model.Route{
		Waypoints: []geo.Position{
			{Lat: 18.500, Lng: 73.850},
			{Lat: 18.5015, Lng: 73.850},
			{Lat: 18.503, Lng: 73.850},
		},
		DistanceM: 330,
		DurationS: 24,
	}
}

// collectUntilComplete drains the event stream until the leg finishes.
func collectUntilComplete(t *testing.T, s *Simulator) (positions []PositionEvent, done LegCompletedEvent) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("leg never completed")
		case ev := <-s.Events():
			switch e := ev.(type) {
			case PositionEvent:
				positions = append(positions, e)
			case LegCompletedEvent:
				return positions, e
			}
		}
	}
}

func TestStartMovementRejectsInvalidRoute(t *testing.T) {
	s, _ := newSim(t, time.Millisecond)
	err := s.StartMovement("amb-01", nil, 50)
	assert.ErrorIs(t, err, model.ErrInvalidRoute)

	err = s.StartMovement("amb-01", &model.Route{Waypoints: []geo.Position{{Lat: 18.5, Lng: 73.85}}}, 50)
	assert.ErrorIs(t, err, model.ErrInvalidRoute)
	assert.False(t, s.Moving("amb-01"))
}

func TestMovementRunsToCompletion(t *testing.T) {
	s, st := newSim(t, time.Millisecond)
	route := shortRoute()
	require.NoError(t, s.StartMovement("amb-01", route, 3000))

	positions, done := collectUntilComplete(t, s)
	assert.Equal(t, "amb-01", done.AmbulanceID)
	assert.Equal(t, route.End(), done.Position)

	// Progress through the waypoint list never goes backwards.
	lastIdx, lastProg := 0, -1.0
	for _, p := range positions {
		if p.Index == lastIdx {
			assert.GreaterOrEqual(t, p.Progress, lastProg)
		} else {
			assert.Greater(t, p.Index, lastIdx)
		}
		lastIdx, lastProg = p.Index, p.Progress
	}

	// Final position was written through to the ambulance record.
	amb, err := st.GetAmbulance("amb-01")
	require.NoError(t, err)
	assert.Equal(t, route.End(), amb.Position)

	// Registry drained; the scheduler halts and the id is forgotten.
	assert.False(t, s.Moving("amb-01"))
	_, err = s.CurrentPosition("amb-01")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStopMovementIsSynchronous(t *testing.T) {
	s, _ := newSim(t, time.Millisecond)
	require.NoError(t, s.StartMovement("amb-01", shortRoute(), 1))

	s.StopMovement("amb-01")
	assert.False(t, s.Moving("amb-01"))

	// Replacing and stopping again must not race the old ticker.
	require.NoError(t, s.StartMovement("amb-01", shortRoute(), 1))
	s.StopMovement("amb-01")
	assert.False(t, s.Moving("amb-01"))
}

func TestStopMovementUnknownIDIsNoOp(t *testing.T) {
	s, _ := newSim(t, time.Millisecond)
	s.StopMovement("amb-99")
}

func TestCurrentPositionWhileMoving(t *testing.T) {
	s, _ := newSim(t, time.Hour) // ticker effectively frozen
	route := shortRoute()
	require.NoError(t, s.StartMovement("amb-01", route, 50))

	pos, err := s.CurrentPosition("amb-01")
	require.NoError(t, err)
	assert.Equal(t, route.Start(), pos, "no tick yet, still at the first waypoint")
	s.StopMovement("amb-01")
}

func TestConcurrentMovements(t *testing.T) {
	st := store.NewMemoryStore()
	st.Seed([]*model.Ambulance{
		{ID: "amb-01", Status: model.AmbulanceEnRoute},
		{ID: "amb-02", Status: model.AmbulanceEnRoute},
	}, nil, nil)
	s := New(st, time.Millisecond, quietLog())

	require.NoError(t, s.StartMovement("amb-01", shortRoute(), 3000))
	require.NoError(t, s.StartMovement("amb-02", shortRoute(), 3000))

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d of 2 legs completed", len(seen))
		case ev := <-s.Events():
			if done, ok := ev.(LegCompletedEvent); ok {
				seen[done.AmbulanceID] = true
			}
		}
	}
}
