// Package fakerpc provides a canned JSON-RPC server for exercising
// clients in tests.
package fakerpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

type call struct {
	Method string
	Params string
}

// Calls is a record of dispatched invocations, in arrival order.
type Calls []call

// Call builds an entry for comparing against Server.Calls.
func Call(method string, params string) call {
	return call{method, params}
}

// Error is a canned error for a method. Data is raw JSON, or empty.
type Error struct {
	Code    int
	Message string
	Data    string
}

// Server is an http.Handler that answers JSON-RPC requests with canned
// values: Results by method name, Errors by method name, and method not
// found for everything else. Every dispatched call is recorded,
// notifications included.
type Server struct {
	Results map[string]interface{}
	Errors  map[string]*Error

	mu    sync.Mutex
	calls Calls
}

func New() *Server {
	return &Server{
		Results: map[string]interface{}{},
		Errors:  map[string]*Error{},
	}
}

// Calls returns a copy of the recorded invocations.
func (s *Server) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Calls{}, s.calls...)
}

type request struct {
	ID      json.RawMessage `json:"id"`
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if isArray(raw) {
		var reqs []request
		if err := json.Unmarshal(raw, &reqs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		responses := make([]json.RawMessage, 0, len(reqs))
		for i := range reqs {
			if resp := s.handle(&reqs[i]); resp != nil {
				responses = append(responses, resp)
			}
		}
		if len(responses) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := json.NewEncoder(w).Encode(responses); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := s.handle(&req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Write(resp)
}

// handle records the call and renders a response entry, or nil for a
// notification.
func (s *Server) handle(req *request) json.RawMessage {
	s.mu.Lock()
	s.calls = append(s.calls, call{Method: req.Method, Params: string(req.Params)})
	s.mu.Unlock()

	if req.ID == nil {
		return nil
	}
	if fail, ok := s.Errors[req.Method]; ok {
		return renderError(req.ID, fail)
	}
	if result, ok := s.Results[req.Method]; ok {
		out, err := json.Marshal(result)
		if err != nil {
			return renderError(req.ID, &Error{Code: -32603, Message: err.Error()})
		}
		return json.RawMessage(fmt.Sprintf(`{"id":%s,"jsonrpc":"2.0","result":%s}`, req.ID, out))
	}
	return renderError(req.ID, &Error{Code: -32601, Message: "method not found"})
}

func renderError(id json.RawMessage, fail *Error) json.RawMessage {
	message, _ := json.Marshal(fail.Message)
	data := ""
	if fail.Data != "" {
		data = fmt.Sprintf(`,"data":%s`, fail.Data)
	}
	return json.RawMessage(fmt.Sprintf(`{"id":%s,"jsonrpc":"2.0","error":{"code":%d,"message":%s%s}}`, id, fail.Code, message, data))
}

// isArray returns true if the message is a JSON array (starts
// with '[', spaces skipped).
func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		if isSpace(b) {
			continue
		}
		return b == '['
	}
	return false
}

// isSpace returns true if the byte is considered a space in JSON syntax.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
