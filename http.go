package wirecall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	httpContentType = "application/json"
	httpAccept      = "application/json-rpc"
)

var _ Transport = &HTTPTransport{}

// HTTPTransport posts payloads to an HTTP endpoint. The zero value is
// usable once Endpoint is set.
type HTTPTransport struct {
	HTTPClient http.Client

	// Endpoint is the HTTP URL to dial for RPC calls.
	Endpoint string
	// Header entries are set on every request, overriding the default
	// Content-Type and Accept values on collision.
	Header http.Header
	// Username and Password enable HTTP basic auth when either is
	// non-empty.
	Username string
	Password string
	// MaxContentLength is the response size limit (optional)
	MaxContentLength int64
}

// Send posts the payload and returns the response body.
func (t *HTTPTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := t.roundTrip(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if t.MaxContentLength > 0 && resp.ContentLength > t.MaxContentLength {
		return nil, TransportError{
			Status: resp.Status,
			Cause:  fmt.Errorf("response too large: %d bytes", resp.ContentLength),
		}
	}
	var r io.Reader = resp.Body
	if t.MaxContentLength > 0 {
		r = io.LimitReader(resp.Body, t.MaxContentLength)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, TransportError{Cause: err}
	}
	return body, nil
}

// SendNotification posts the payload and discards any response body.
func (t *HTTPTransport) SendNotification(ctx context.Context, payload []byte) error {
	resp, err := t.roundTrip(ctx, payload)
	if err != nil {
		return err
	}
	// Drain before closing so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Close releases idle connections held by the HTTP client.
func (t *HTTPTransport) Close() error {
	t.HTTPClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) roundTrip(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", httpContentType)
	req.Header.Set("Accept", httpAccept)
	for key, values := range t.Header {
		req.Header[http.CanonicalHeaderKey(key)] = values
	}
	if t.Username != "" || t.Password != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, TransportError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, TransportError{
			Status: resp.Status,
			Cause:  fmt.Errorf("bad status code: %d", resp.StatusCode),
		}
	}
	return resp, nil
}
