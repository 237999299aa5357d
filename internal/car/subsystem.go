package car

import (
	"context"
	"errors"
	"log/slog"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// eventBufferSize bounds the channel between the subsystem's receive loop
// and the car's processing loop; a car services one assignment at a time,
// so a small buffer is enough to absorb a burst without blocking the
// subsystem's receive.
const eventBufferSize = 10

// Subsystem owns a car's ingress socket and the task handle that reads it.
// It never touches car state directly: events flow subsystem->car on a
// bounded channel, keeping the two sides decoupled the way a friend class
// pair would have been in an object-oriented rewrite.
type Subsystem struct {
	socket *transport.Socket
	events chan domain.Event
	logger *slog.Logger
}

// NewSubsystem binds a car's ingress socket.
func NewSubsystem(port int) (*Subsystem, error) {
	sock, err := transport.Listen(port)
	if err != nil {
		return nil, err
	}
	return &Subsystem{
		socket: sock,
		events: make(chan domain.Event, eventBufferSize),
		logger: slog.With(slog.String("component", constants.ComponentCar)),
	}, nil
}

// Port returns the subsystem's bound port.
func (s *Subsystem) Port() int {
	return s.socket.Port()
}

// Events returns the channel the owning car reads assignments from.
func (s *Subsystem) Events() <-chan domain.Event {
	return s.events
}

// Send fires a telemetry datagram at the given port (normally the
// scheduler's ingress).
func (s *Subsystem) Send(port int, event domain.Event) error {
	return s.socket.Send(port, event)
}

// Close releases the socket and closes the events channel. Callers must
// ensure Listen has already returned (by cancelling its context and
// waiting for it) before calling Close, since a concurrent Listen would
// otherwise send on a closed channel.
func (s *Subsystem) Close() error {
	err := s.socket.Close()
	close(s.events)
	return err
}

// Listen blocks receiving datagrams and forwarding them onto Events()
// until ctx is cancelled.
func (s *Subsystem) Listen(ctx context.Context) {
	for {
		event, err := s.socket.Recv(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrShutdown) {
				return
			}
			s.logger.Error("receive failed", slog.String("error", err.Error()))
			continue
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}
}
