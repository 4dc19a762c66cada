// Websocket transport implementation using Gorilla's Websocket library
package gorilla

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/wirecall/wirecall"
	"github.com/wirecall/wirecall/internal/deadline"
)

var _ wirecall.Transport = &Transport{}

// Transport performs JSON-RPC round trips over a single websocket
// connection. Round trips are serialized; notifications may interleave
// between them but never split one open.
//
// A cancelled round trip leaves the connection out of step with the
// server, since the late reply may still arrive. Close the transport
// after a cancelled call instead of reusing it.
type Transport struct {
	muRoundTrip sync.Mutex
	muWrite     sync.Mutex
	conn        *websocket.Conn
}

// Dial connects a Transport to a websocket endpoint.
func Dial(ctx context.Context, url string) (*Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewTransport(conn), nil
}

// NewTransport wraps an established client-side websocket connection.
func NewTransport(conn *websocket.Conn) *Transport {
	return &Transport{conn: conn}
}

// Send writes the payload as a text message and waits for the reply.
// Cancelling the context aborts the round trip.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	t.muRoundTrip.Lock()
	defer t.muRoundTrip.Unlock()
	if err := t.write(ctx, payload); err != nil {
		return nil, err
	}
	stop, err := deadline.Watch(ctx, t.conn.SetReadDeadline)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer stop()
	_, body, err := t.conn.ReadMessage()
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return body, nil
}

// SendNotification writes the payload without waiting for a reply.
func (t *Transport) SendNotification(ctx context.Context, payload []byte) error {
	return t.write(ctx, payload)
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) write(ctx context.Context, payload []byte) error {
	t.muWrite.Lock()
	defer t.muWrite.Unlock()
	stop, err := deadline.Watch(ctx, t.conn.SetWriteDeadline)
	if err != nil {
		return transportError(ctx, err)
	}
	defer stop()
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return transportError(ctx, err)
	}
	return nil
}

// transportError wraps a connection failure. Once the context has
// ended, its error takes over from the induced deadline error.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return wirecall.TransportError{Cause: err}
}
