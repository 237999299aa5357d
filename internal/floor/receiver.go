package floor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// Receiver listens on the floor's ingress port for telemetry relayed by
// the scheduler, tallying completions with lock-free counters per
// spec.md §9 ("monotone counters... must be lock-free atomics").
type Receiver struct {
	socket         *transport.Socket
	totalInjected  atomic.Int64
	completedCount atomic.Int64
	totalKnown     atomic.Bool
	done           chan struct{}
	closeOnce      sync.Once
	logger         *slog.Logger
}

// NewReceiver wraps the floor's already bound ingress socket.
func NewReceiver(socket *transport.Socket) *Receiver {
	return &Receiver{
		socket: socket,
		done:   make(chan struct{}),
		logger: slog.With(slog.String("component", constants.ComponentFloor)),
	}
}

// SetTotal records how many hall calls were injected. The caller sets
// this once it knows the final count (after reading the input file);
// completion tracking tolerates arriving before or after this call.
func (r *Receiver) SetTotal(total int) {
	r.totalInjected.Store(int64(total))
	r.totalKnown.Store(true)
	r.checkFinished()
}

// CompletedCount returns the current completion tally.
func (r *Receiver) CompletedCount() int {
	return int(r.completedCount.Load())
}

// Done returns a channel that closes once completedCount reaches
// totalInjected, per spec.md §3's shutdown condition. A zero-request run
// (SetTotal(0)) closes it immediately.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

// Run blocks receiving telemetry until ctx is cancelled or every injected
// request has completed, whichever comes first.
func (r *Receiver) Run(ctx context.Context) {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		event, err := r.socket.Recv(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrShutdown) {
				return
			}
			r.logger.Error("receive failed", slog.String("error", err.Error()))
			continue
		}

		if event.IsComplete {
			completed := r.completedCount.Add(1)
			r.logger.Info("request completed",
				slog.Int("car_id", event.AssignedElevator),
				slog.Int("current_floor", event.CurrentFloor),
				slog.Int64("completed", completed))
			r.checkFinished()
		}
	}
}

func (r *Receiver) checkFinished() {
	if !r.totalKnown.Load() {
		return
	}
	if r.completedCount.Load() < r.totalInjected.Load() {
		return
	}
	r.closeOnce.Do(func() { close(r.done) })
}
