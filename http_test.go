package wirecall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/wirecall/wirecall/internal/fakerpc"
)

func TestHTTPCall(t *testing.T) {
	fake := fakerpc.New()
	fake.Results["flavors"] = []string{"mint", "fig"}
	client := serveFake(t, fake)

	var got []string
	if err := client.Call(context.Background(), &got, "flavors", Named{"limit": 2}); err != nil {
		t.Fatal(err)
	}
	assertEqualJSON(t, got, []string{"mint", "fig"}, "wrong result")

	want := fakerpc.Calls{fakerpc.Call("flavors", `{"limit":2}`)}
	if got := fake.Calls(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("got: %v; want %v", got, want)
	}
}

func TestHTTPCallError(t *testing.T) {
	fake := fakerpc.New()
	client := serveFake(t, fake)

	err := client.Call(context.Background(), nil, "missing")
	rpcErr, ok := err.(*ErrResponse)
	if !ok {
		t.Fatalf("expected *ErrResponse, got: %v (%T)", err, err)
	}
	if got, want := rpcErr.Code, ErrCodeMethodNotFound; got != want {
		t.Errorf("got: %d; want %d", got, want)
	}
}

func TestHTTPCallErrorData(t *testing.T) {
	fake := fakerpc.New()
	fake.Errors["freeze"] = &fakerpc.Error{Code: -32000, Message: "freezer jammed", Data: `{"temp":12}`}
	client := serveFake(t, fake)

	err := client.Call(context.Background(), nil, "freeze")
	rpcErr, ok := err.(*ErrResponse)
	if !ok {
		t.Fatalf("expected *ErrResponse, got: %v (%T)", err, err)
	}
	if got, want := rpcErr.Code, -32000; got != want {
		t.Errorf("got: %d; want %d", got, want)
	}
	if got, want := string(rpcErr.Data), `{"temp":12}`; got != want {
		t.Errorf("got: %s; want %s", got, want)
	}
}

func TestHTTPConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := Dial(server.URL)
	defer client.Close()

	err := client.Call(context.Background(), nil, "flavors")
	if _, ok := err.(TransportError); !ok {
		t.Errorf("expected TransportError, got: %v (%T)", err, err)
	}
}

func TestHTTPBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of cream", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	err := client.Call(context.Background(), nil, "flavors")
	transportErr, ok := err.(TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got: %v (%T)", err, err)
	}
	if got, want := transportErr.Status, "503 Service Unavailable"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestHTTPInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pistachio{")
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	err := client.Call(context.Background(), nil, "flavors")
	if _, ok := err.(ParseError); !ok {
		t.Errorf("expected ParseError, got: %v (%T)", err, err)
	}
}

func TestHTTPNotify(t *testing.T) {
	bodyChan := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodyChan <- body
		// Whatever comes back to a notification is never parsed.
		fmt.Fprint(w, "pistachio{")
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	if err := client.Notify(context.Background(), "melted"); err != nil {
		t.Fatal(err)
	}
	body := <-bodyChan
	assertEqualJSON(t, json.RawMessage(body), json.RawMessage(`{"jsonrpc":"2.0","method":"melted"}`), "wrong notification body")
}

func TestHTTPNotifyBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of cream", http.StatusBadGateway)
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	err := client.Notify(context.Background(), "melted")
	transportErr, ok := err.(TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got: %v (%T)", err, err)
	}
	if got, want := transportErr.Status, "502 Bad Gateway"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestHTTPNotifyConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := Dial(server.URL)
	defer client.Close()

	err := client.Notify(context.Background(), "melted")
	if _, ok := err.(TransportError); !ok {
		t.Errorf("expected TransportError, got: %v (%T)", err, err)
	}
}

func TestHTTPDefaultHeaders(t *testing.T) {
	headerChan := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerChan <- r.Header.Clone()
		fmt.Fprint(w, `{"id":1,"jsonrpc":"2.0","result":true}`)
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	if err := client.Call(context.Background(), nil, "flavors"); err != nil {
		t.Fatal(err)
	}
	header := <-headerChan
	if got, want := header.Get("Content-Type"), "application/json"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
	if got, want := header.Get("Accept"), "application/json-rpc"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestHTTPCustomHeaders(t *testing.T) {
	headerChan := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerChan <- r.Header.Clone()
		fmt.Fprint(w, `{"id":1,"jsonrpc":"2.0","result":true}`)
	}))
	defer server.Close()

	transport := &HTTPTransport{
		Endpoint: server.URL,
		Header: http.Header{
			"X-Scoop-Token": []string{"waffle"},
			"Accept":        []string{"application/json"},
		},
	}
	client := NewClient(transport)
	defer client.Close()

	if err := client.Call(context.Background(), nil, "flavors"); err != nil {
		t.Fatal(err)
	}
	header := <-headerChan
	if got, want := header.Get("X-Scoop-Token"), "waffle"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
	if got, want := header.Get("Accept"), "application/json"; got != want {
		t.Errorf("custom header should override the default: got %q; want %q", got, want)
	}
	if got, want := header.Get("Content-Type"), "application/json"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestHTTPBasicAuth(t *testing.T) {
	credChan := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			credChan <- "missing"
		} else {
			credChan <- username + ":" + password
		}
		fmt.Fprint(w, `{"id":1,"jsonrpc":"2.0","result":true}`)
	}))
	defer server.Close()

	transport := &HTTPTransport{
		Endpoint: server.URL,
		Username: "scooper",
		Password: "sprinkles",
	}
	client := NewClient(transport)
	defer client.Close()

	if err := client.Call(context.Background(), nil, "flavors"); err != nil {
		t.Fatal(err)
	}
	if got, want := <-credChan, "scooper:sprinkles"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestHTTPContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Consume the body so net/http notices the client hanging up;
		// otherwise the handler never returns and Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()
	client := Dial(server.URL)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.Call(ctx, nil, "forever")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}
}

func TestHTTPMaxContentLength(t *testing.T) {
	body := fmt.Sprintf(`{"id":1,"jsonrpc":"2.0","result":%q}`, strings.Repeat("vanilla", 4096))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	transport := &HTTPTransport{
		Endpoint:         server.URL,
		MaxContentLength: 1024,
	}
	client := NewClient(transport)
	defer client.Close()

	err := client.Call(context.Background(), nil, "flavors")
	if _, ok := err.(TransportError); !ok {
		t.Errorf("expected TransportError, got: %v (%T)", err, err)
	}
}

func TestHTTPEnvelopeViolations(t *testing.T) {
	testcases := []struct {
		name string
		body string
	}{
		{"wrong version", `{"id":1,"jsonrpc":"1.0","result":true}`},
		{"missing version", `{"id":1,"result":true}`},
		{"both result and error", `{"id":1,"jsonrpc":"2.0","result":true,"error":{"code":1,"message":"no"}}`},
		{"neither result nor error", `{"id":1,"jsonrpc":"2.0"}`},
		{"id mismatch", `{"id":999,"jsonrpc":"2.0","result":true}`},
		{"missing id", `{"jsonrpc":"2.0","result":true}`},
		{"array body", `[{"id":1,"jsonrpc":"2.0","result":true}]`},
		{"non-object body", `"scoop"`},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()
			client := Dial(server.URL)
			defer client.Close()

			err := client.Call(context.Background(), nil, "any")
			rpcErr, ok := err.(*ErrResponse)
			if !ok {
				t.Fatalf("expected *ErrResponse, got: %v (%T)", err, err)
			}
			if rpcErr.Code != 0 {
				t.Errorf("client-side violations carry code 0, got: %d", rpcErr.Code)
			}
		})
	}
}
