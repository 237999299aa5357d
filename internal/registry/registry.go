// Package registry implements the scheduler-owned fleet-state registry:
// a single-writer, single-mutex map from car id to its last-observed
// position, direction, passenger count, and busy flag, plus the set of
// permanently decommissioned cars. Cars never read or write it directly;
// it is mutated only from telemetry relayed through the scheduler.
package registry

import (
	"sync"

	"github.com/galemire/elevator-dispatch/internal/domain"
)

// Entry is a car's last-known state as observed by the scheduler.
type Entry struct {
	CurrentFloor int
	Mode         domain.CarMode
	Riders       int
	IsBusy       bool
}

// Registry is the scheduler's fleet-state map. All access is serialized
// through one RWMutex; per-car locking is avoided on purpose so that a
// hall call's assignment decision sees one consistent snapshot.
type Registry struct {
	mu      sync.RWMutex
	entries map[int]*Entry
	removed map[int]struct{}
	order   []int // stable iteration order, lowest id first
}

// New creates a registry seeded with the given car ids, each starting at
// the given floor, at rest, idle, and in service.
func New(carIDs []int, startFloor int) *Registry {
	r := &Registry{
		entries: make(map[int]*Entry, len(carIDs)),
		removed: make(map[int]struct{}),
		order:   append([]int(nil), carIDs...),
	}
	for _, id := range carIDs {
		r.entries[id] = &Entry{CurrentFloor: startFloor, Mode: domain.ModeRest}
	}
	return r
}

// UpdateFromTelemetry applies a car telemetry event to the registry:
// current floor always updates, riders updates if non-negative, mode is
// derived from the event's FloorButton, and isBusy clears on completion.
func (r *Registry) UpdateFromTelemetry(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[e.AssignedElevator]
	if !ok {
		return
	}

	entry.CurrentFloor = e.CurrentFloor
	if e.Riders >= 0 {
		entry.Riders = e.Riders
	}
	entry.Mode = domain.ModeFromButton(e.FloorButton)

	if e.IsComplete {
		entry.IsBusy = false
	}
}

// MarkBusy flags a car as serving an assignment.
func (r *Registry) MarkBusy(carID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[carID]; ok {
		entry.IsBusy = true
	}
}

// MarkIdle clears a car's busy flag.
func (r *Registry) MarkIdle(carID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[carID]; ok {
		entry.IsBusy = false
	}
}

// Remove permanently decommissions a car: it is erased from the
// assignable map (not merely flagged) so it can never again win an
// assignment or be returned by CarIDs/Snapshot.
func (r *Registry) Remove(carID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, carID)
	r.removed[carID] = struct{}{}
}

// IsRemoved reports whether a car has been decommissioned.
func (r *Registry) IsRemoved(carID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, removed := r.removed[carID]
	return removed
}

// CarIDs returns the ids of cars still assignable, in ascending order.
func (r *Registry) CarIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.entries))
	for _, id := range r.order {
		if _, ok := r.entries[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// FleetSize returns the number of car ids the registry was seeded with,
// used for the round-robin fallback when every car has been removed.
func (r *Registry) FleetSize() int {
	return len(r.order)
}

// Score computes the assignment score for a candidate car against a hall
// call originating at originFloor going in the given direction, per the
// scheduler's least-score selection. A false second return means the car
// is not a candidate (removed).
func (r *Registry) Score(carID int, originFloor int, goingUp bool) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[carID]
	if !ok {
		return 0, false
	}

	score := 1000
	if entry.IsBusy {
		score += 5000
	}
	score += 10 * abs(entry.CurrentFloor-originFloor)

	switch {
	case goingUp && entry.Mode == domain.ModeMovingUp && entry.CurrentFloor <= originFloor:
		score -= 500
	case goingUp && entry.Mode.IsAtRest():
		score -= 300
	case !goingUp && entry.Mode == domain.ModeMovingDown && entry.CurrentFloor >= originFloor:
		score -= 500
	case !goingUp && entry.CurrentFloor > originFloor:
		score -= 400
	case !goingUp && entry.Mode.IsAtRest():
		score -= 300
	}

	return score, true
}

// Snapshot returns a defensive copy of every assignable car's state, keyed
// by car id, for diagnostics consumers (health checks, websocket push).
func (r *Registry) Snapshot() map[int]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int]Entry, len(r.entries))
	for id, e := range r.entries {
		out[id] = *e
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
