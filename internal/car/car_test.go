package car

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// testTiming shrinks the timing table so sleeps stay observable without
// slowing the suite down; the values keep the table's ordering (1 < 2 < 3
// floors) but not its exact ratios.
func testTiming() constants.Timing {
	return constants.Timing{
		Between1Floor:     2,
		Between2Floors:    3,
		Between3Floors:    4,
		BetweenXPerFloor:  1,
		LoadUnloadPerRide: 1,
		OpenCloseDoor:     1,
		Recovery:          3,
	}
}

type harness struct {
	car      *Car
	schedSvc *transport.Socket
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	schedSvc, err := transport.Listen(0)
	require.NoError(t, err)

	c, err := New(Config{
		ID:               0,
		StartFloor:       1,
		SchedulerPort:    schedSvc.Port(),
		Port:             0,
		Timing:           testTiming(),
		ElevatorCapacity: 2,
		Tracer:           otel.Tracer("test"),
	})
	require.NoError(t, err)

	return &harness{car: c, schedSvc: schedSvc}
}

func (h *harness) close() {
	h.car.Close()
	h.schedSvc.Close()
}

func (h *harness) recvTelemetry(t *testing.T) domain.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, err := h.schedSvc.Recv(ctx)
	require.NoError(t, err)
	return event
}

func TestMoveBetweenFloors_MatchesTimingTable(t *testing.T) {
	timing := constants.DefaultTiming()

	assert.Equal(t, 0, timing.MoveBetweenFloors(0))
	assert.Equal(t, constants.TimeBetween1Floor, timing.MoveBetweenFloors(1))
	assert.Equal(t, constants.TimeBetween2Floors, timing.MoveBetweenFloors(2))
	assert.Equal(t, constants.TimeBetween3Floors, timing.MoveBetweenFloors(3))
	assert.Equal(t, constants.TimeBetween3Floors+constants.TimeBetweenXFloorsPerUnit, timing.MoveBetweenFloors(4))
	assert.Equal(t, constants.TimeBetween3Floors+constants.TimeBetweenXFloorsPerUnit*2, timing.MoveBetweenFloors(5))
	assert.Equal(t, timing.MoveBetweenFloors(-2), timing.MoveBetweenFloors(2))
}

func TestService_HappyPath_CompletesAndReportsArrival(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	event := domain.Event{Source: "1", FloorButton: domain.ButtonUp, ElevatorButton: 4, IsFromFloor: true}
	h.car.service(context.Background(), event)

	got := h.recvTelemetry(t)
	assert.True(t, got.IsComplete)
	assert.Equal(t, 4, got.CurrentFloor)
	assert.Equal(t, domain.FaultNone, got.Fault)
	assert.Equal(t, "Elevator:0", got.Source)
	assert.Equal(t, 0, h.car.state.Riders())
	assert.Equal(t, domain.ModeRest, h.car.state.Mode())
}

func TestService_CarStuckFault_AbortsMoveWithoutDecommission(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	event := domain.Event{Source: "1", FloorButton: domain.ButtonUp, ElevatorButton: 4, IsFromFloor: true, Fault: domain.FaultCarStuck}

	start := time.Now()
	h.car.service(context.Background(), event)
	elapsed := time.Since(start)

	recoveryFloor := time.Duration(testTiming().Recovery) * constants.TimeUnit
	assert.GreaterOrEqual(t, elapsed, recoveryFloor)

	got := h.recvTelemetry(t)
	assert.False(t, got.IsComplete)
	assert.Equal(t, 1, got.CurrentFloor) // never left the origin floor
	assert.Equal(t, domain.FaultNone, h.car.fault.Current(), "fault clears after a failed attempt")
}

func TestService_ArrivalSensorFault_Decommissions(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	event := domain.Event{Source: "1", FloorButton: domain.ButtonUp, ElevatorButton: 4, IsFromFloor: true, Fault: domain.FaultArrivalSensor}
	h.car.service(context.Background(), event)

	got := h.recvTelemetry(t)
	assert.False(t, got.IsComplete)
	assert.Equal(t, domain.FaultArrivalSensor, got.Fault)
	assert.True(t, h.car.fault.IsTerminal())
}

func TestOpenDoors_DoorOpenStuckFault_StallsInDoorOpenForRecovery(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	h.car.fault.Latch(domain.FaultDoorOpenStuck)

	start := time.Now()
	h.car.openDoors(context.Background())
	elapsed := time.Since(start)

	recovery := time.Duration(testTiming().Recovery) * constants.TimeUnit
	assert.GreaterOrEqual(t, elapsed, recovery)
	assert.Equal(t, domain.ModeDoorOpen, h.car.state.Mode())
}

func TestCloseDoors_DoorCloseStuckFault_StallsInDoorCloseForRecovery(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	h.car.fault.Latch(domain.FaultDoorCloseStuck)

	start := time.Now()
	h.car.closeDoors(context.Background())
	elapsed := time.Since(start)

	recovery := time.Duration(testTiming().Recovery) * constants.TimeUnit
	assert.GreaterOrEqual(t, elapsed, recovery)
	assert.Equal(t, domain.ModeDoorClose, h.car.state.Mode())
}

func TestLoad_CapsAtCapacity(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	h.car.load(context.Background(), 5) // capacity is 2
	assert.Equal(t, 2, h.car.state.Riders())

	h.car.load(context.Background(), 5) // already full
	assert.Equal(t, 2, h.car.state.Riders())
}

func TestUnload_NeverGoesNegativeAndTalliesServed(t *testing.T) {
	h := newHarness(t)
	defer h.close()

	h.car.load(context.Background(), 1)
	h.car.unload(context.Background(), 5)

	assert.Equal(t, 0, h.car.state.Riders())
	assert.Equal(t, 1, h.car.state.TotalServed())
}
