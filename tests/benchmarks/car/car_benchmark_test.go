package car_benchmarks

import (
	"testing"

	"github.com/galemire/elevator-dispatch/internal/car"
	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
)

// BenchmarkState_Load benchmarks the capacity-capped passenger load path
// every car actor runs once per stop with boarding passengers.
func BenchmarkState_Load(b *testing.B) {
	s := car.NewState(0, 1)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s.Load(3, constants.ElevatorCapacity)
		s.Unload(3)
	}
}

// BenchmarkState_ConcurrentReads benchmarks the read side of State under
// concurrent readers; no writer runs during the benchmark.
func BenchmarkState_ConcurrentReads(b *testing.B) {
	s := car.NewState(0, 1)
	s.Load(5, constants.ElevatorCapacity)

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = s.CurrentFloor()
			_ = s.Mode()
			_ = s.Riders()
		}
	})
}

// BenchmarkTiming_MoveBetweenFloors benchmarks the timing-table lookup the
// car actor calls before every move, including the linear extrapolation
// branch for moves beyond three floors.
func BenchmarkTiming_MoveBetweenFloors(b *testing.B) {
	timing := constants.DefaultTiming()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		delta := i%20 - 10
		_ = timing.MoveBetweenFloors(delta)
	}
}

// BenchmarkFaultMachine_Transition benchmarks the fault machine's
// transition path under a steady stream of injected fault codes.
func BenchmarkFaultMachine_Transition(b *testing.B) {
	fm := car.NewFaultMachine()
	b.ReportAllocs()
	b.ResetTimer()

	codes := []domain.Fault{
		domain.FaultNone, domain.FaultCarStuck, domain.FaultDoorOpenStuck,
		domain.FaultDoorCloseStuck, domain.FaultArrivalSensor,
	}
	for i := 0; i < b.N; i++ {
		fm.Latch(codes[i%len(codes)])
		fm.Clear()
	}
}
