package wirecall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/wirecall/wirecall/internal/fakerpc"
)

func assertEqualJSON(t *testing.T, a, b interface{}, format string, args ...interface{}) {
	t.Helper()

	aa, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aa, bb) {
		prefix := fmt.Sprintf(format, args...)
		t.Errorf(prefix+"\n   got: %q\n  want: %q", aa, bb)
	}
}

// serveFake starts a fake RPC server and returns a client dialed to it.
func serveFake(t *testing.T, fake *fakerpc.Server) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client := Dial(server.URL)
	t.Cleanup(func() { client.Close() })
	return client
}

// stubTransport counts sends and fails them all, for asserting that an
// error surfaced before anything was sent.
type stubTransport struct {
	sends  int
	closes int
}

func (s *stubTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	s.sends++
	return nil, errors.New("unexpected send")
}

func (s *stubTransport) SendNotification(ctx context.Context, payload []byte) error {
	s.sends++
	return errors.New("unexpected send")
}

func (s *stubTransport) Close() error {
	s.closes++
	return nil
}
