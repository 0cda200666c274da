package phasestore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. State is lost on restart.
type Memory struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]State)}
}

func (m *Memory) Get(_ context.Context, userID, conceptID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[key(userID, conceptID)]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) Put(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key(s.UserID, s.ConceptID)] = s
	return nil
}

func (m *Memory) Delete(_ context.Context, userID, conceptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key(userID, conceptID))
	return nil
}
