package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencorridor/corridor"
	"greencorridor/data"
	"greencorridor/dispatch"
	"greencorridor/geo"
	"greencorridor/match"
	"greencorridor/model"
	"greencorridor/routing"
	"greencorridor/sim"
	"greencorridor/store"
)

func geoPos(lat, lng float64) geo.Position {
	return geo.Position{Lat: lat, Lng: lng}
}

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	log := quietLog()
	st := store.NewMemoryStore()
	st.Seed(data.Ambulances(), data.Hospitals(), data.Signals())

	planner := routing.New("", time.Second, log)
	corridors := corridor.NewManager(st, corridor.DefaultBufferM, log)
	simulator := sim.New(st, time.Millisecond, log)
	orch := dispatch.New(st, match.New(st, log), planner, corridors, simulator, log)

	ctx, cancel := context.WithCancel(context.Background())
	go orch.Run(ctx)
	t.Cleanup(cancel)

	return New(":0", st, orch, corridors, log), st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestListEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for path, key := range map[string]string{
		"/api/ambulances":  "ambulances",
		"/api/hospitals":   "hospitals",
		"/api/signals":     "signals",
		"/api/emergencies": "emergencies",
	} {
		w := doJSON(t, s, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var resp map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp, key, path)
	}
}

func TestEmergencyLifecycleOverHTTP(t *testing.T) {
	s, st := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/emergencies", dispatch.Request{
		PatientPos: geoPos(18.5224, 73.8550),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var em model.Emergency
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &em))
	assert.NotEmpty(t, em.ID)
	assert.Equal(t, model.EmergencyActive, em.Status)

	w = doJSON(t, s, http.MethodGet, "/api/emergencies/"+em.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/emergencies/"+em.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	final, err := st.GetEmergency(em.ID)
	require.NoError(t, err)
	assert.True(t, final.Phase.Terminal())

	// Repeat delete stays 204; the operation is idempotent.
	w = doJSON(t, s, http.MethodDelete, "/api/emergencies/"+em.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStartEmergencyExhaustedFleet(t *testing.T) {
	s, st := newTestServer(t)

	ambs, err := st.ListAmbulances()
	require.NoError(t, err)
	for _, a := range ambs {
		a.Status = model.AmbulanceTransporting
		require.NoError(t, st.UpdateAmbulance(a))
	}

	w := doJSON(t, s, http.MethodPost, "/api/emergencies", dispatch.Request{
		PatientPos: geoPos(18.5224, 73.8550),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartEmergencyBadBody(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/emergencies", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEmergencyNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/emergencies/em-missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
