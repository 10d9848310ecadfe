package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"greencorridor/model"
)

// MemoryStore keeps every record in process memory under one RWMutex. It is
// the only backend the core ships with; see Store for the contract.
type MemoryStore struct {
	mu          sync.RWMutex
	ambulances  map[string]*model.Ambulance
	hospitals   map[string]*model.Hospital
	signals     map[string]*model.Signal
	emergencies map[string]*model.Emergency
	events      []LogEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ambulances:  make(map[string]*model.Ambulance),
		hospitals:   make(map[string]*model.Hospital),
		signals:     make(map[string]*model.Signal),
		emergencies: make(map[string]*model.Emergency),
	}
}

// Seed loads initial fleet, hospital and signal records, replacing any
// existing entries with the same ids.
func (m *MemoryStore) Seed(ambulances []*model.Ambulance, hospitals []*model.Hospital, signals []*model.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range ambulances {
		cp := *a
		m.ambulances[a.ID] = &cp
	}
	for _, h := range hospitals {
		cp := *h
		m.hospitals[h.ID] = &cp
	}
	for _, s := range signals {
		m.signals[s.ID] = s.Clone()
	}
}

func (m *MemoryStore) GetAmbulance(id string) (*model.Ambulance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.ambulances[id]
	if !ok {
		return nil, fmt.Errorf("ambulance %s: %w", id, model.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) ListAmbulances() ([]*model.Ambulance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Ambulance, 0, len(m.ambulances))
	for _, a := range m.ambulances {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) UpdateAmbulance(a *model.Ambulance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ambulances[a.ID]; !ok {
		return fmt.Errorf("ambulance %s: %w", a.ID, model.ErrNotFound)
	}
	cp := *a
	m.ambulances[a.ID] = &cp
	return nil
}

func (m *MemoryStore) GetHospital(id string) (*model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hospitals[id]
	if !ok {
		return nil, fmt.Errorf("hospital %s: %w", id, model.ErrNotFound)
	}
	cp := *h
	return &cp, nil
}

func (m *MemoryStore) ListHospitals() ([]*model.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Hospital, 0, len(m.hospitals))
	for _, h := range m.hospitals {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) GetSignal(id string) (*model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.signals[id]
	if !ok {
		return nil, fmt.Errorf("signal %s: %w", id, model.ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) ListSignals() ([]*model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Signal, 0, len(m.signals))
	for _, s := range m.signals {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (m *MemoryStore) UpdateSignal(s *model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.signals[s.ID]; !ok {
		return fmt.Errorf("signal %s: %w", s.ID, model.ErrNotFound)
	}
	m.signals[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetEmergency(id string) (*model.Emergency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.emergencies[id]
	if !ok {
		return nil, fmt.Errorf("emergency %s: %w", id, model.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) ListEmergencies() ([]*model.Emergency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Emergency, 0, len(m.emergencies))
	for _, e := range m.emergencies {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) InsertEmergency(e *model.Emergency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emergencies[e.ID]; ok {
		return fmt.Errorf("emergency %s already exists: %w", e.ID, model.ErrPersistence)
	}
	cp := *e
	m.emergencies[e.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateEmergency(e *model.Emergency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emergencies[e.ID]; !ok {
		return fmt.Errorf("emergency %s: %w", e.ID, model.ErrNotFound)
	}
	cp := *e
	m.emergencies[e.ID] = &cp
	return nil
}

func (m *MemoryStore) AppendEvent(entry LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	m.events = append(m.events, entry)
	return nil
}

// Events returns a copy of the append-only log, oldest first.
func (m *MemoryStore) Events() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]LogEntry, len(m.events))
	copy(out, m.events)
	return out
}
