package floor

import (
	"context"
	"log/slog"
	"time"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// pacing is the minimum spacing between successive hall-call injections,
// per spec.md §4.3.
var pacing = time.Duration(constants.FloorInjectionPacingUnits) * constants.TimeUnit

// Injector replays a scripted sequence of hall-call events against the
// scheduler's ingress port, pacing sends so the scheduler never sees a
// burst faster than the reference design allows.
type Injector struct {
	socket        *transport.Socket
	schedulerPort int
	logger        *slog.Logger
}

// NewInjector wraps an already bound socket as the injector's send-only
// egress.
func NewInjector(socket *transport.Socket, schedulerPort int) *Injector {
	return &Injector{
		socket:        socket,
		schedulerPort: schedulerPort,
		logger:        slog.With(slog.String("component", constants.ComponentFloor)),
	}
}

// Run sends every event in order, spaced at least `pacing` apart, and
// returns the count actually sent (less than len(events) only if ctx is
// cancelled mid-run). It never aborts on a single Send failure.
func (inj *Injector) Run(ctx context.Context, events []domain.Event) int {
	sent := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return sent
		}

		if err := inj.socket.Send(inj.schedulerPort, event); err != nil {
			inj.logger.Error("failed to inject hall call", slog.String("error", err.Error()))
		}
		sent++

		timer := time.NewTimer(pacing)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return sent
		}
	}
	return sent
}
