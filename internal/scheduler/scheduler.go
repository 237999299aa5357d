// Package scheduler implements the dispatcher's central routing task: it
// owns the single ingress socket every other actor sends to, classifies
// each event as a hall call or car telemetry, and either assigns a car or
// relays the event onward.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/registry"
	"github.com/galemire/elevator-dispatch/internal/transport"
	"github.com/galemire/elevator-dispatch/metrics"
)

// State is the scheduler's externally-observed diagnostic state.
type State string

const (
	StateIdle             State = "IDLE"
	StateAllocateElevator State = "ALLOCATE_ELEVATOR"
)

// Scheduler ingests every event the fleet produces on one well-known port
// and either assigns a hall call to a car or relays car telemetry.
type Scheduler struct {
	socket    *transport.Socket
	registry  *registry.Registry
	carPort   func(carID int) int
	floorPort int

	logger *slog.Logger
	tracer trace.Tracer

	state State

	roundRobin int
}

// New binds the scheduler's ingress socket and returns a Scheduler ready
// to Run. carPort maps a car id to its listening port; floorPort is where
// telemetry (including completions) is relayed.
func New(port int, floorPort int, reg *registry.Registry, carPort func(int) int, tracer trace.Tracer) (*Scheduler, error) {
	sock, err := transport.Listen(port)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	return &Scheduler{
		socket:    sock,
		registry:  reg,
		carPort:   carPort,
		floorPort: floorPort,
		logger:    slog.With(slog.String("component", constants.ComponentScheduler)),
		tracer:    tracer,
		state:     StateIdle,
	}, nil
}

// Port returns the scheduler's ingress port.
func (s *Scheduler) Port() int {
	return s.socket.Port()
}

// Close releases the scheduler's socket.
func (s *Scheduler) Close() error {
	return s.socket.Close()
}

// Run processes events until ctx is cancelled. Receive and send failures
// are logged and the loop continues; nothing here aborts the process.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler listening", slog.Int("port", s.socket.Port()))

	for {
		event, err := s.socket.Recv(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrShutdown) {
				s.logger.Info("scheduler shutting down")
				return
			}
			s.logger.Error("receive failed", slog.String("error", err.Error()))
			continue
		}

		s.handle(ctx, event)
	}
}

func (s *Scheduler) handle(ctx context.Context, event domain.Event) {
	if event.IsFromFloor {
		s.assign(ctx, event)
		return
	}
	s.relayTelemetry(event)
}

// assign runs the least-score selection described by the scheduler's
// assignment algorithm and forwards the event to the winning car.
func (s *Scheduler) assign(ctx context.Context, event domain.Event) {
	s.state = StateAllocateElevator
	defer func() { s.state = StateIdle }()

	ctx, span := s.tracer.Start(ctx, "scheduler.assign")
	defer span.End()

	start := time.Now()

	originFloor, err := strconv.Atoi(event.Source)
	if err != nil {
		s.logger.Error("hall call has non-numeric source floor",
			slog.String("source", event.Source), slog.String("error", err.Error()))
		return
	}
	goingUp := event.IsGoingUp()

	carID, ok := s.selectCar(originFloor, goingUp)
	if !ok {
		carID = s.roundRobinFallback()
	}

	s.registry.MarkBusy(carID)
	metrics.SetCarBusy(carID, true)

	event.AssignedElevator = carID
	span.SetAttributes(
		attribute.Int("dispatch.car_id", carID),
		attribute.Int("dispatch.origin_floor", originFloor),
	)

	if err := s.socket.Send(s.carPort(carID), event); err != nil {
		s.logger.Error("failed to forward assignment to car",
			slog.Int("car_id", carID), slog.String("error", err.Error()))
	}

	metrics.ObserveAssignmentDuration(time.Since(start).Seconds())
}

// selectCar implements the deterministic least-score selection over
// candidate cars. The second return is false only when no car scored
// (every car has been removed from the registry).
func (s *Scheduler) selectCar(originFloor int, goingUp bool) (int, bool) {
	bestID := 0
	bestScore := 0
	found := false

	for _, id := range s.registry.CarIDs() {
		score, ok := s.registry.Score(id, originFloor, goingUp)
		if !ok {
			continue
		}
		if !found || score < bestScore {
			bestScore = score
			bestID = id
			found = true
		}
	}

	return bestID, found
}

// roundRobinFallback is used only when every car has been decommissioned;
// it still returns a car id (even if removed) so the caller has someone
// to address, matching the spec's fallback for an empty candidate set.
func (s *Scheduler) roundRobinFallback() int {
	size := s.registry.FleetSize()
	if size == 0 {
		return 0
	}
	id := s.roundRobin % size
	s.roundRobin++
	return id
}

// relayTelemetry updates the registry from a car's telemetry event and
// forwards the event to the floor, which is how completions are observed.
func (s *Scheduler) relayTelemetry(event domain.Event) {
	s.registry.UpdateFromTelemetry(event)

	if snap, ok := s.registry.Snapshot()[event.AssignedElevator]; ok {
		metrics.SetCarBusy(event.AssignedElevator, snap.IsBusy)
	}
	if event.Fault != domain.FaultNone {
		metrics.IncFault(event.AssignedElevator, int(event.Fault))
	}
	if event.Fault == domain.FaultArrivalSensor {
		s.RemoveCar(event.AssignedElevator)
	}
	if event.IsComplete {
		metrics.IncCompletion(event.AssignedElevator)
	}

	if err := s.socket.Send(s.floorPort, event); err != nil {
		s.logger.Error("failed to relay telemetry to floor",
			slog.Int("car_id", event.AssignedElevator), slog.String("error", err.Error()))
	}
}

// RemoveCar decommissions a car: it is erased from the registry so it can
// never again be selected, per the removed-set invariant.
func (s *Scheduler) RemoveCar(carID int) {
	s.registry.Remove(carID)
	s.logger.Info("car decommissioned", slog.Int("car_id", carID))
}

// State reports the scheduler's current diagnostic state.
func (s *Scheduler) State() State {
	return s.state
}
