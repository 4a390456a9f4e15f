package state

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory. State is lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, assetID string) (State, error) {
	if err := validateAssetID(assetID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if st, ok := m.states[assetID]; ok {
		return st.clone(), nil
	}
	return State{}, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, assetID string, st State) error {
	if err := validateAssetID(assetID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[assetID] = st.clone()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, assetID string) error {
	if err := validateAssetID(assetID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, assetID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}
