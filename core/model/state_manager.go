package model

import (
	"sync"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// Optional metadata - Public for gob encoding
	NStates  int
	NSamples int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NStates = 0
	s.NSamples = 0
}

// SetDimensions records the number of hidden states and the length of the
// sequence seen during fitting.
func (s *StateManager) SetDimensions(nStates, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NStates = nStates
	s.NSamples = nSamples
}

// GetDimensions returns the values recorded by SetDimensions.
func (s *StateManager) GetDimensions() (nStates, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NStates, s.NSamples
}

// RequireFitted returns a NotFittedError naming modelName and method if the
// model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
