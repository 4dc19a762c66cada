// Package ws carries JSON-RPC payloads over a websocket connection
// using the gobwas/ws library.
package ws

import (
	"context"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/wirecall/wirecall"
	"github.com/wirecall/wirecall/internal/deadline"
)

var _ wirecall.Transport = &Transport{}

// Transport performs JSON-RPC round trips over a single websocket
// connection. Round trips are serialized: the next payload is not
// written until the previous reply has arrived.
//
// A cancelled round trip leaves the connection out of step with the
// server, since the late reply may still arrive. Close the transport
// after a cancelled call instead of reusing it.
type Transport struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects a Transport to a websocket endpoint.
func Dial(ctx context.Context, url string) (*Transport, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewTransport(conn), nil
}

// NewTransport wraps an established client-side websocket connection.
func NewTransport(conn net.Conn) *Transport {
	return &Transport{conn: conn}
}

// Send writes the payload as a text message and waits for the reply.
// Cancelling the context aborts the round trip.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stop, err := deadline.Watch(ctx, t.conn.SetDeadline)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer stop()
	if err := wsutil.WriteClientText(t.conn, payload); err != nil {
		return nil, transportError(ctx, err)
	}
	body, _, err := wsutil.ReadServerData(t.conn)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return body, nil
}

// SendNotification writes the payload without waiting for a reply.
func (t *Transport) SendNotification(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stop, err := deadline.Watch(ctx, t.conn.SetDeadline)
	if err != nil {
		return transportError(ctx, err)
	}
	defer stop()
	if err := wsutil.WriteClientText(t.conn, payload); err != nil {
		return transportError(ctx, err)
	}
	return nil
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// transportError wraps a connection failure. Once the context has
// ended, its error takes over from the induced deadline error.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return wirecall.TransportError{Cause: err}
}
