// Package mock provides a test double for the display.Sink interface.
package mock

import (
	"sync"

	"github.com/translive/translive/internal/display"
)

// Sink is a mock implementation of display.Sink that records every update.
type Sink struct {
	mu      sync.Mutex
	updates []display.Update
}

// Show records the update.
func (s *Sink) Show(u display.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
}

// Updates returns a copy of the recorded updates in arrival order.
func (s *Sink) Updates() []display.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]display.Update, len(s.updates))
	copy(out, s.updates)
	return out
}

// ResetCalls clears the recorded updates. Thread-safe.
func (s *Sink) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = nil
}

// Ensure Sink implements display.Sink at compile time.
var _ display.Sink = (*Sink)(nil)
