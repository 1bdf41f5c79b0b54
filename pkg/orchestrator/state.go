package orchestrator

import (
	"sync"

	"network-orchestrator-be/internal/entity"
)

type edge struct {
	from, to entity.SystemState
}

// allowedEdges is the complete transition table.
var allowedEdges = map[edge]struct{}{
	{entity.StatePassive, entity.StateWarning}:        {},
	{entity.StateWarning, entity.StateActiveFallback}: {},
	{entity.StateWarning, entity.StatePassive}:        {},
	{entity.StateActiveFallback, entity.StatePassive}: {},
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to entity.SystemState) bool {
	_, ok := allowedEdges[edge{from, to}]
	return ok
}

// State holds the current SystemState. Only the Orchestrator mutates it.
type State struct {
	mu      sync.RWMutex
	current entity.SystemState
}

func (s *State) Current() entity.SystemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// advance moves to `to` if the edge from the current state exists.
func (s *State) advance(to entity.SystemState) (entity.SystemState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.current
	if !CanTransition(from, to) {
		return from, false
	}
	s.current = to
	return from, true
}

func (s *State) reset(to entity.SystemState) {
	s.mu.Lock()
	s.current = to
	s.mu.Unlock()
}
