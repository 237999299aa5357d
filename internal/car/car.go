// Package car implements the per-elevator actor: one Car per physical
// cabin, each owning its own state, fault machine, and ingress subsystem,
// simulating motion, doors, and passenger exchange for every assignment
// it receives.
package car

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
)

// Car is one elevator's actor: its own state, fault machine, and the
// subsystem that feeds it assignments.
type Car struct {
	id        int
	state     *State
	fault     *FaultMachine
	subsystem *Subsystem
	schedPort int
	timing    constants.Timing
	capacity  int
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Config bundles the parameters needed to construct a Car. Port overrides
// the constants.CarPort(ID) convention when non-zero; a zero Port always
// binds constants.CarPort(ID), never an ephemeral port.
type Config struct {
	ID               int
	StartFloor       int
	SchedulerPort    int
	Port             int
	Timing           constants.Timing
	ElevatorCapacity int
	Tracer           trace.Tracer
}

// New constructs a car and binds its ingress subsystem.
func New(cfg Config) (*Car, error) {
	port := cfg.Port
	if port == 0 {
		port = constants.CarPort(cfg.ID)
	}

	sub, err := NewSubsystem(port)
	if err != nil {
		return nil, err
	}

	return &Car{
		id:        cfg.ID,
		state:     NewState(cfg.ID, cfg.StartFloor),
		fault:     NewFaultMachine(),
		subsystem: sub,
		schedPort: cfg.SchedulerPort,
		timing:    cfg.Timing,
		capacity:  cfg.ElevatorCapacity,
		logger:    slog.With(slog.String("component", constants.ComponentCar), slog.Int("car_id", cfg.ID)),
		tracer:    cfg.Tracer,
	}, nil
}

// Port returns the car's ingress port.
func (c *Car) Port() int {
	return c.subsystem.Port()
}

// Close releases the car's socket. Callers must first ensure Run/Listen
// have returned.
func (c *Car) Close() error {
	return c.subsystem.Close()
}

// State exposes the car's state for read-only diagnostics (health, ws).
func (c *Car) State() *State {
	return c.state
}

// Run drives the subsystem's receive loop and the car's processing loop
// together; it blocks until ctx is cancelled.
func (c *Car) Run(ctx context.Context) {
	go c.subsystem.Listen(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.subsystem.Events():
			if !ok {
				return
			}
			c.service(ctx, event)
		}
	}
}

// service runs one assignment end to end: open doors, load, close, move to
// destination, open, unload, close, emit completion. The doors open at the
// car's current floor; the car does not first travel to the hall call's
// origin floor.
// A terminal fault (ARRIVAL_SENSOR) decommissions the car mid-service and
// never emits completion; a CAR_STUCK fault aborts only the move step (a
// failure telemetry event is sent, then the car unloads where it stands and
// emits completion).
func (c *Car) service(ctx context.Context, event domain.Event) {
	ctx, span := c.tracer.Start(ctx, "car.service")
	defer span.End()
	span.SetAttributes(attribute.Int("car.id", c.id))

	c.fault.Latch(event.Fault)

	c.openDoors(ctx)
	c.load(ctx, 1)
	c.closeDoors(ctx)

	if c.fault.IsTerminal() {
		c.emitDecommission(event)
		return
	}

	moved := c.moveTo(ctx, event.ElevatorButton)
	if !moved {
		c.emitFailure(event)
		c.fault.Clear()
	}

	c.openDoors(ctx)
	c.unload(ctx, 1)
	c.closeDoors(ctx)
	c.state.SetMode(domain.ModeRest)

	c.fault.Clear()
	c.emitCompletion(event)
}

// moveTo implements the three-step fault-aware move: a CAR_STUCK fault
// sleeps RECOVERY_TIME and aborts; an ARRIVAL_SENSOR fault is handled by
// the caller before moveTo is reached; otherwise the car sleeps for the
// timing table's duration and arrives.
func (c *Car) moveTo(ctx context.Context, dst int) bool {
	if c.fault.BlocksMovement() {
		sleep(ctx, time.Duration(c.timing.Recovery)*constants.TimeUnit)
		return false
	}

	origin := c.state.CurrentFloor()
	delta := dst - origin
	if delta > 0 {
		c.state.SetMode(domain.ModeMovingUp)
	} else if delta < 0 {
		c.state.SetMode(domain.ModeMovingDown)
	}

	sleep(ctx, time.Duration(c.timing.MoveBetweenFloors(delta))*constants.TimeUnit)
	c.state.SetCurrentFloor(dst)
	c.state.SetMode(domain.ModeRest)
	return true
}

// openDoors transitions to DOOR_OPEN and sleeps for the door time. When
// DOOR_OPEN_STUCK is latched it instead stays in DOOR_OPEN for one
// RECOVERY_TIME stall and then returns.
func (c *Car) openDoors(ctx context.Context) {
	c.state.SetMode(domain.ModeDoorOpen)
	if c.fault.BlocksDoorOpen() {
		sleep(ctx, time.Duration(c.timing.Recovery)*constants.TimeUnit)
		return
	}
	sleep(ctx, time.Duration(c.timing.OpenCloseDoor)*constants.TimeUnit)
}

// closeDoors is the door-close symmetric of openDoors.
func (c *Car) closeDoors(ctx context.Context) {
	c.state.SetMode(domain.ModeDoorClose)
	if c.fault.BlocksDoorClose() {
		sleep(ctx, time.Duration(c.timing.Recovery)*constants.TimeUnit)
		return
	}
	sleep(ctx, time.Duration(c.timing.OpenCloseDoor)*constants.TimeUnit)
}

func (c *Car) load(ctx context.Context, count int) {
	loaded := c.state.Load(count, c.capacity)
	sleep(ctx, time.Duration(loaded*c.timing.LoadUnloadPerRide)*constants.TimeUnit)
}

func (c *Car) unload(ctx context.Context, count int) {
	unloaded := c.state.Unload(count)
	sleep(ctx, time.Duration(unloaded*c.timing.LoadUnloadPerRide)*constants.TimeUnit)
}

func (c *Car) emitCompletion(event domain.Event) {
	event.AssignedElevator = c.id
	event.CurrentFloor = c.state.CurrentFloor()
	event.Riders = c.state.Riders()
	event.IsComplete = true
	event.Fault = domain.FaultNone
	event.Source = elevatorSource(c.id)
	c.send(event)
}

func (c *Car) emitFailure(event domain.Event) {
	event.AssignedElevator = c.id
	event.CurrentFloor = c.state.CurrentFloor()
	event.Riders = c.state.Riders()
	event.IsComplete = false
	event.Source = elevatorSource(c.id)
	c.send(event)
}

func (c *Car) emitDecommission(event domain.Event) {
	event.AssignedElevator = c.id
	event.CurrentFloor = c.state.CurrentFloor()
	event.IsComplete = false
	event.Fault = domain.FaultArrivalSensor
	event.Source = elevatorSource(c.id)
	c.send(event)
	c.logger.Warn("arrival sensor fault: car is self-decommissioning")
}

func (c *Car) send(event domain.Event) {
	if err := c.subsystem.Send(c.schedPort, event); err != nil {
		c.logger.Error("failed to send telemetry", slog.String("error", err.Error()))
	}
}

func elevatorSource(id int) string {
	return "Elevator:" + strconv.Itoa(id)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
