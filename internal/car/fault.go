package car

import (
	"sync"

	"github.com/galemire/elevator-dispatch/internal/domain"
)

// FaultMachine tracks a car's latched fault state for the lifetime of one
// assignment. It is structurally the same CLOSED/OPEN/HALF-OPEN shape as a
// circuit breaker, but the transitions are driven by the fault code an
// assignment carries rather than by operation failure rates.
type FaultMachine struct {
	mu      sync.Mutex
	current domain.Fault
}

// NewFaultMachine creates a fault machine starting at NONE.
func NewFaultMachine() *FaultMachine {
	return &FaultMachine{current: domain.FaultNone}
}

// Latch records the fault carried by a newly assigned event, replacing
// whatever fault (if any) was latched before.
func (fm *FaultMachine) Latch(f domain.Fault) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.current = f
}

// Current returns the latched fault.
func (fm *FaultMachine) Current() domain.Fault {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.current
}

// Clear returns the machine to NONE, used once a transient fault has been
// reported and recovered from.
func (fm *FaultMachine) Clear() {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.current = domain.FaultNone
}

// IsTerminal reports whether the latched fault permanently decommissions
// the car (ARRIVAL_SENSOR).
func (fm *FaultMachine) IsTerminal() bool {
	return fm.Current() == domain.FaultArrivalSensor
}

// BlocksDoorOpen reports whether the latched fault keeps the car stuck in
// DOOR_OPEN.
func (fm *FaultMachine) BlocksDoorOpen() bool {
	return fm.Current() == domain.FaultDoorOpenStuck
}

// BlocksDoorClose reports whether the latched fault keeps the car stuck in
// DOOR_CLOSE.
func (fm *FaultMachine) BlocksDoorClose() bool {
	return fm.Current() == domain.FaultDoorCloseStuck
}

// BlocksMovement reports whether the latched fault aborts a move entirely
// (CAR_STUCK).
func (fm *FaultMachine) BlocksMovement() bool {
	return fm.Current() == domain.FaultCarStuck
}
