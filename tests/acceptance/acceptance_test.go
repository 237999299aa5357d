package acceptance

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/galemire/elevator-dispatch/internal/car"
	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/floor"
	"github.com/galemire/elevator-dispatch/internal/infra/observability"
	"github.com/galemire/elevator-dispatch/internal/registry"
	"github.com/galemire/elevator-dispatch/internal/scheduler"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// fleet wires the same actor set cmd/dispatcher/main.go wires, with the
// scheduler and floor sockets on ephemeral loopback ports and the cars on
// the fixed CarPort range.
type fleet struct {
	reg      *registry.Registry
	sched    *scheduler.Scheduler
	cars     []*car.Car
	egress   *transport.Socket
	ingress  *transport.Socket
	injector *floor.Injector
	receiver *floor.Receiver
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func startFleet(t *testing.T, numCars int) *fleet {
	t.Helper()

	telemetry, err := observability.NewTelemetryProvider(&observability.Config{Enabled: false}, slog.Default())
	require.NoError(t, err)
	tracer := telemetry.Tracer()

	carIDs := make([]int, numCars)
	for i := range carIDs {
		carIDs[i] = i
	}
	reg := registry.New(carIDs, 1)

	egress, err := transport.Listen(0)
	require.NoError(t, err)
	ingress, err := transport.Listen(0)
	require.NoError(t, err)

	// Cars bind to the fixed CarPort range (Port: 0 falls back to
	// constants.CarPort) since the scheduler needs to know every car's
	// port up front; only the scheduler and floor sockets are ephemeral.
	sched, err := scheduler.New(0, ingress.Port(), reg, constants.CarPort, tracer)
	require.NoError(t, err)

	cars := make([]*car.Car, numCars)
	for i := range cars {
		c, err := car.New(car.Config{
			ID:               i,
			StartFloor:       1,
			SchedulerPort:    sched.Port(),
			Timing:           constants.DefaultTiming(),
			ElevatorCapacity: constants.ElevatorCapacity,
			Tracer:           tracer,
		})
		require.NoError(t, err)
		cars[i] = c
	}

	f := &fleet{
		reg:      reg,
		sched:    sched,
		cars:     cars,
		egress:   egress,
		ingress:  ingress,
		injector: floor.NewInjector(egress, sched.Port()),
		receiver: floor.NewReceiver(ingress),
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	f.wg.Add(1 + numCars + 1)
	go func() { defer f.wg.Done(); f.sched.Run(ctx) }()
	for _, c := range f.cars {
		c := c
		go func() { defer f.wg.Done(); c.Run(ctx) }()
	}
	go func() { defer f.wg.Done(); f.receiver.Run(ctx) }()

	return f
}

func (f *fleet) stop() {
	f.cancel()
	f.wg.Wait()
	for _, c := range f.cars {
		_ = c.Close()
	}
	_ = f.sched.Close()
	_ = f.egress.Close()
	_ = f.ingress.Close()
}

type AcceptanceTestSuite struct {
	suite.Suite
}

func TestAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(AcceptanceTestSuite))
}

// TestSingleUpRequest_RoutesToTheAssignedCarAndCompletes covers scenario 1:
// a single hall call injected from the floor is assigned to a car, the car
// carries it to its destination, and the floor observes completion.
func (s *AcceptanceTestSuite) TestSingleUpRequest_RoutesToTheAssignedCarAndCompletes() {
	t := s.T()
	f := startFleet(t, 3)
	defer f.stop()

	f.receiver.SetTotal(1)

	events := []domain.Event{
		{Source: "1", FloorButton: domain.ButtonUp, ElevatorButton: 5, IsFromFloor: true},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sent := f.injector.Run(ctx, events)
	require.Equal(t, 1, sent)

	select {
	case <-f.receiver.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("hall call never completed")
	}

	require.Equal(t, 1, f.receiver.CompletedCount())
}

// TestMultipleConcurrentRequests_AllComplete covers a fleet of requests
// spread across multiple cars, all of which must eventually complete.
func (s *AcceptanceTestSuite) TestMultipleConcurrentRequests_AllComplete() {
	t := s.T()
	f := startFleet(t, 3)
	defer f.stop()

	events := []domain.Event{
		{Source: "1", FloorButton: domain.ButtonUp, ElevatorButton: 4, IsFromFloor: true},
		{Source: "8", FloorButton: domain.ButtonDown, ElevatorButton: 2, IsFromFloor: true},
		{Source: "3", FloorButton: domain.ButtonUp, ElevatorButton: 6, IsFromFloor: true},
	}
	f.receiver.SetTotal(len(events))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sent := f.injector.Run(ctx, events)
	require.Equal(t, len(events), sent)

	select {
	case <-f.receiver.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("only %d/%d requests completed", f.receiver.CompletedCount(), len(events))
	}
}
