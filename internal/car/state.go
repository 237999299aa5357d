package car

import (
	"sync"

	"github.com/galemire/elevator-dispatch/internal/domain"
)

// State holds one car's mutable state. It is exclusive to the car's own
// actor goroutine for writes; other components only ever see it via
// telemetry events the actor emits.
type State struct {
	mu           sync.RWMutex
	id           int
	currentFloor int
	mode         domain.CarMode
	riders       int
	totalServed  int
}

// NewState creates a car's state, starting at rest on startFloor.
func NewState(id, startFloor int) *State {
	return &State{id: id, currentFloor: startFloor, mode: domain.ModeRest}
}

func (s *State) ID() int {
	return s.id
}

func (s *State) CurrentFloor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFloor
}

func (s *State) SetCurrentFloor(floor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFloor = floor
}

func (s *State) Mode() domain.CarMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *State) SetMode(mode domain.CarMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *State) Riders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.riders
}

// Load adds count riders, capped at capacity. It returns the number of
// riders actually loaded, which may be less than count once full.
func (s *State) Load(count, capacity int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := capacity - s.riders
	if room <= 0 {
		return 0
	}
	if count > room {
		count = room
	}
	s.riders += count
	return count
}

// Unload removes up to count riders (never below zero) and tallies them
// onto totalServed.
func (s *State) Unload(count int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count > s.riders {
		count = s.riders
	}
	s.riders -= count
	s.totalServed += count
	return count
}

func (s *State) TotalServed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalServed
}
