package wirecall

import (
	"context"

	"github.com/wirecall/wirecall/internal/pretty"
)

// debugPayloadLimit caps how much of a payload a debug log line carries.
const debugPayloadLimit = 2048

// DebugTransport wraps a transport and logs every payload through the
// package logger. Enable the output with SetLogger.
func DebugTransport(label string, transport Transport) Transport {
	return debugTransport{label: label, transport: transport}
}

type debugTransport struct {
	label     string
	transport Transport
}

func (t debugTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	logger.Printf("[%s] -> %s", t.label, pretty.Abbrev(payload, debugPayloadLimit))
	body, err := t.transport.Send(ctx, payload)
	if err != nil {
		logger.Printf("[%s] <- error: %s", t.label, err)
		return body, err
	}
	logger.Printf("[%s] <- %s", t.label, pretty.Abbrev(body, debugPayloadLimit))
	return body, nil
}

func (t debugTransport) SendNotification(ctx context.Context, payload []byte) error {
	logger.Printf("[%s] -> %s", t.label, pretty.Abbrev(payload, debugPayloadLimit))
	err := t.transport.SendNotification(ctx, payload)
	if err != nil {
		logger.Printf("[%s] <- error: %s", t.label, err)
	}
	return err
}

func (t debugTransport) Close() error {
	return t.transport.Close()
}
