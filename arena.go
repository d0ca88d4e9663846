package boxkalman

import "sync"

// StateArena stores per-track NoiseStates keyed by track ID. Hosts that
// parallelise across tracks can keep each track's adaptive noise state in
// one flat store instead of allocating a filter object per track. The arena
// guards only its own map; every NoiseState inside it still follows the
// single-owner rule.
type StateArena struct {
	mu     sync.RWMutex
	states map[string]*NoiseState
}

// NewStateArena returns an empty arena.
func NewStateArena() *StateArena {
	return &StateArena{states: make(map[string]*NoiseState)}
}

// Allocate creates a fresh NoiseState for trackID, replacing any previous
// state. A track re-initiated after a numerical fault must not reuse its
// old adaptive state.
func (a *StateArena) Allocate(trackID string) *NoiseState {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := NewNoiseState()
	a.states[trackID] = s
	return s
}

// Get returns the NoiseState for trackID, or nil if none is allocated.
func (a *StateArena) Get(trackID string) *NoiseState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.states[trackID]
}

// Release drops the NoiseState for trackID when its track ends.
func (a *StateArena) Release(trackID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.states, trackID)
}

// Len returns the number of allocated states.
func (a *StateArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.states)
}
