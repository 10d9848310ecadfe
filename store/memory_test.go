package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencorridor/geo"
	"greencorridor/model"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	st.Seed([]*model.Ambulance{
		{ID: "amb-01", Status: model.AmbulanceAvailable, Position: geo.Position{Lat: 18.52, Lng: 73.85}},
	}, nil, nil)

	a, err := st.GetAmbulance("amb-01")
	require.NoError(t, err)
	a.Status = model.AmbulanceTransporting

	again, err := st.GetAmbulance("amb-01")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, again.Status, "mutating a returned record does not touch the store")
}

func TestMemoryStoreNotFound(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.GetAmbulance("amb-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = st.GetEmergency("em-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	err = st.UpdateSignal(&model.Signal{ID: "sig-missing"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInsertEmergencyRejectsDuplicate(t *testing.T) {
	st := NewMemoryStore()
	em := &model.Emergency{ID: "em-1", Status: model.EmergencyActive}
	require.NoError(t, st.InsertEmergency(em))
	assert.ErrorIs(t, st.InsertEmergency(em), model.ErrPersistence)
}

func TestAppendEventFillsDefaults(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.AppendEvent(LogEntry{Type: "corridor_signal_green", SignalID: "sig-01"}))
	require.NoError(t, st.AppendEvent(LogEntry{Type: "emergency_ended"}))

	events := st.Events()
	require.Len(t, events, 2)
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
	}
	assert.Equal(t, "corridor_signal_green", events[0].Type, "log preserves append order")
}
