package wirecall

import (
	"context"
	"fmt"
	"strings"
)

// reservedNames are client facilities that cannot begin a method path.
// Methods that collide with one remain reachable through Client.Call.
var reservedNames = map[string]bool{
	"transport": true,
	"session":   true,
	"close":     true,
}

// Method is a cursor over a dotted method path. Cursors are immutable:
// every descent returns a new cursor, so intermediate cursors can be
// stored and extended independently.
//
// Invalid segments poison the cursor instead of failing immediately; the
// error surfaces from Call or Notify, before anything reaches the
// transport.
type Method struct {
	client *Client
	path   []string
	err    error
}

// Method begins a method path on the client. Each name contributes one
// or more segments; dotted names are split.
func (c *Client) Method(names ...string) *Method {
	m := &Method{client: c}
	return m.Method(names...)
}

// Method descends into a deeper method path.
func (m *Method) Method(names ...string) *Method {
	next := &Method{
		client: m.client,
		path:   append([]string(nil), m.path...),
		err:    m.err,
	}
	for _, name := range names {
		if next.err != nil {
			return next
		}
		for _, segment := range strings.Split(name, ".") {
			if err := next.checkSegment(segment); err != nil {
				next.err = err
				return next
			}
			next.path = append(next.path, segment)
		}
	}
	return next
}

// Call invokes the accumulated method path.
func (m *Method) Call(ctx context.Context, result interface{}, args ...interface{}) error {
	if m.err != nil {
		return m.err
	}
	return m.client.Call(ctx, result, m.String(), args...)
}

// Notify invokes the accumulated method path as a notification.
func (m *Method) Notify(ctx context.Context, args ...interface{}) error {
	if m.err != nil {
		return m.err
	}
	return m.client.Notify(ctx, m.String(), args...)
}

// String returns the dotted method name.
func (m *Method) String() string {
	return strings.Join(m.path, ".")
}

func (m *Method) checkSegment(segment string) error {
	if segment == "" {
		return UsageError("empty method path segment")
	}
	if segment[0] == '_' {
		return UsageError(fmt.Sprintf("method path segment %q starts with an underscore", segment))
	}
	if segment[0] >= '0' && segment[0] <= '9' {
		return UsageError(fmt.Sprintf("method path segment %q starts with a digit", segment))
	}
	if len(m.path) == 0 && reservedNames[segment] {
		return UsageError(fmt.Sprintf("method path starts with reserved name %q", segment))
	}
	return nil
}
