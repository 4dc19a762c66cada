package wirecall

import "context"

// Transport delivers encoded payloads to a server. Send performs a full
// round trip and returns the raw response body; SendNotification expects
// no reply. Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
	SendNotification(ctx context.Context, payload []byte) error
	Close() error
}
