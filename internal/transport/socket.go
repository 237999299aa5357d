// Package transport implements the connectionless datagram fabric that
// floor, scheduler, and car actors use to exchange wire-format events.
// Every actor owns its own socket; nothing is shared between tasks.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
	"github.com/galemire/elevator-dispatch/internal/wire"
)

// PollInterval is the cadence at which Recv re-checks the done context
// between blocking reads, matching the ~5-time-unit polling the spec's
// design notes describe as one acceptable cooperative-shutdown strategy.
const PollInterval = 5 * constants.TimeUnit

// Socket is a single loopback UDP endpoint bound to one port. It is not
// safe for concurrent Recv calls (a component owns one receive loop per
// socket), but Send may be called concurrently with a Recv loop.
type Socket struct {
	conn *net.UDPConn
	port int
}

// Listen binds a UDP socket on loopback at the given port.
func Listen(port int) (*Socket, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, domain.NewExternalError(fmt.Sprintf("failed to bind udp port %d", port), err)
	}
	return &Socket{conn: conn, port: conn.LocalAddr().(*net.UDPAddr).Port}, nil
}

// Port returns the local port this socket is bound to.
func (s *Socket) Port() int {
	return s.port
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// Send encodes and fires a single datagram at the given loopback port.
// Send errors are the caller's to log-and-drop; this is a fire-and-forget
// transport with no delivery guarantee.
func (s *Socket) Send(port int, e domain.Event) error {
	payload := wire.Encode(e)
	if len(payload) > constants.MaxDatagramBytes {
		return domain.NewValidationError("encoded event exceeds max datagram size", nil).
			WithContext("size", len(payload))
	}

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	_, err := s.conn.WriteToUDP(payload, addr)
	if err != nil {
		return domain.NewExternalError(fmt.Sprintf("failed to send datagram to port %d", port), err)
	}
	return nil
}

// ErrShutdown is returned by Recv once ctx is done and no further
// datagrams will be read.
var ErrShutdown = errors.New("transport: receive loop shutting down")

// Recv blocks for at most PollInterval waiting for one datagram, decodes
// it, and returns it. It returns ErrShutdown once ctx is cancelled. This
// implements the non-blocking-receive-with-polling strategy from the
// design notes: a blocked receive never starves the context's Done check.
func (s *Socket) Recv(ctx context.Context) (domain.Event, error) {
	buf := make([]byte, constants.MaxDatagramBytes)
	for {
		select {
		case <-ctx.Done():
			return domain.Event{}, ErrShutdown
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(PollInterval)); err != nil {
			return domain.Event{}, domain.NewExternalError("failed to set read deadline", err)
		}

		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return domain.Event{}, domain.NewExternalError("udp receive failed", err)
		}

		e, decodeErr := wire.Decode(buf[:n])
		if decodeErr != nil {
			return domain.Event{}, decodeErr
		}
		return e, nil
	}
}
