package wirecall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Named is the keyword-argument form for call params. A Named passed as
// the sole argument is sent as object params; mixing it with positional
// arguments is a usage error.
type Named map[string]interface{}

// EncodeFunc serializes outgoing envelopes.
type EncodeFunc func(v interface{}) ([]byte, error)

// DecodeFunc deserializes response bodies and results.
type DecodeFunc func(data []byte, v interface{}) error

// Client shapes method calls into JSON-RPC 2.0 envelopes and exchanges
// them through a Transport. Request ids come from a monotonic counter,
// so a Client is safe to share between goroutines as long as its
// transport is.
type Client struct {
	// Transport delivers encoded payloads.
	Transport Transport

	// Encode overrides encoding/json for outgoing envelopes. (optional)
	Encode EncodeFunc
	// Decode overrides encoding/json for response parsing. (optional)
	Decode DecodeFunc

	id        atomic.Int64
	closeOnce sync.Once
}

// Dial returns a Client that posts to an HTTP endpoint.
func Dial(endpoint string) *Client {
	return &Client{
		Transport: &HTTPTransport{Endpoint: endpoint},
	}
}

// NewClient returns a Client on an established transport.
func NewClient(transport Transport) *Client {
	return &Client{Transport: transport}
}

// Call invokes a method and unpacks its result into the given value. A
// nil result discards the server's result.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	req, err := c.newRequest(method, false, args)
	if err != nil {
		return err
	}
	payload, err := c.encode(req)
	if err != nil {
		return err
	}
	transport, err := c.transport()
	if err != nil {
		return err
	}
	body, err := transport.Send(ctx, payload)
	if err != nil {
		return err
	}
	var resp Response
	if err := c.decodeResponse(body, &resp); err != nil {
		return err
	}
	if err := checkResponse(req.ID, &resp); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return c.decode(resp.Result, result)
}

// Notify invokes a method as a notification. The envelope carries no
// id and no response body is parsed.
func (c *Client) Notify(ctx context.Context, method string, args ...interface{}) error {
	req, err := c.newRequest(method, true, args)
	if err != nil {
		return err
	}
	payload, err := c.encode(req)
	if err != nil {
		return err
	}
	transport, err := c.transport()
	if err != nil {
		return err
	}
	return transport.SendNotification(ctx, payload)
}

// NewRequest builds a call envelope without sending it, claiming the
// next request id.
func (c *Client) NewRequest(method string, args ...interface{}) (*Request, error) {
	return c.newRequest(method, false, args)
}

// NewNotification builds a notification envelope without sending it.
func (c *Client) NewNotification(method string, args ...interface{}) (*Request, error) {
	return c.newRequest(method, true, args)
}

// Close releases the transport. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.Transport != nil {
			err = c.Transport.Close()
		}
	})
	return err
}

func (c *Client) transport() (Transport, error) {
	if c.Transport == nil {
		return nil, UsageError("client has no transport")
	}
	return c.Transport, nil
}

func (c *Client) nextID() json.RawMessage {
	return json.RawMessage(strconv.FormatInt(c.id.Add(1), 10))
}

func (c *Client) newRequest(method string, notify bool, args []interface{}) (*Request, error) {
	if err := checkMethodName(method); err != nil {
		return nil, err
	}
	params, err := buildParams(args)
	if err != nil {
		return nil, err
	}
	req := &Request{
		Version: Version,
		Method:  method,
		Params:  params,
	}
	if !notify {
		req.ID = c.nextID()
	}
	return req, nil
}

func (c *Client) encode(v interface{}) ([]byte, error) {
	if c.Encode != nil {
		return c.Encode(v)
	}
	return json.Marshal(v)
}

func (c *Client) decode(data []byte, v interface{}) error {
	if c.Decode != nil {
		return c.Decode(data, v)
	}
	return json.Unmarshal(data, v)
}

// decodeResponse decodes a response body, distinguishing bodies that are
// not JSON at all from JSON that does not fit the envelope.
func (c *Client) decodeResponse(body []byte, v interface{}) error {
	if err := c.decode(body, v); err != nil {
		if json.Valid(body) {
			return errResponsef("invalid response envelope: %s", err)
		}
		return ParseError{Cause: err}
	}
	return nil
}

// buildParams applies the params shaping rules. A sole mapping argument
// becomes object params and any other arguments are positional. No
// arguments yields no params member at all.
func buildParams(args []interface{}) (interface{}, error) {
	named := 0
	for _, arg := range args {
		if _, ok := arg.(Named); ok {
			named++
		}
	}
	if named > 0 && len(args) > 1 {
		return nil, UsageError("cannot mix positional and named arguments")
	}
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		if v := reflect.ValueOf(args[0]); v.Kind() == reflect.Map {
			if v.IsNil() {
				return map[string]interface{}{}, nil
			}
			return args[0], nil
		}
	}
	return args, nil
}

// checkMethodName validates the shape of a raw method name: non-empty,
// dot-separated segments that do not start with a digit. Unlike the
// Method cursor it allows underscores and reserved names, so any method
// a server actually serves stays callable.
func checkMethodName(method string) error {
	if method == "" {
		return UsageError("empty method name")
	}
	for _, segment := range strings.Split(method, ".") {
		if segment == "" {
			return UsageError(fmt.Sprintf("method name %q contains an empty segment", method))
		}
		if segment[0] >= '0' && segment[0] <= '9' {
			return UsageError(fmt.Sprintf("method name %q has a segment starting with a digit", method))
		}
	}
	return nil
}

// checkResponse validates a reply envelope against the id it must echo.
func checkResponse(id json.RawMessage, resp *Response) error {
	if resp.Version != Version {
		return errResponsef("unsupported response version: %q", resp.Version)
	}
	if resp.Error != nil {
		if resp.Result != nil {
			return errResponsef("response contains both result and error")
		}
		return resp.Error
	}
	if resp.Result == nil {
		return errResponsef("response contains neither result nor error")
	}
	if !bytes.Equal(resp.ID, id) {
		return errResponsef("response id mismatch: got %q, want %q", resp.ID, id)
	}
	return nil
}
