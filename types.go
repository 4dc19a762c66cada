package wirecall

import (
	"encoding/json"
	"fmt"
)

const Version = "2.0"

const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeServer         = -32000
)

// Request is a call or notification envelope. Params holds an array for
// positional arguments, an object for named arguments, or nil to omit
// the member entirely. Notifications carry no ID.
type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  interface{}     `json:"params,omitempty"`
}

func (req *Request) String() string {
	out, err := json.Marshal(req)
	if err != nil {
		return fmt.Sprintf("failed to render request: %s", err)
	}
	return string(out)
}

// Response is a reply envelope. A valid response carries exactly one of
// Result and Error.
type Response struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Version string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrResponse    `json:"error,omitempty"`
}

// UnmarshalResult unpacks the result into the given value, or returns
// the error the response carries instead.
func (resp *Response) UnmarshalResult(result interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || resp.Result == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

// ErrResponse is the error object of a response. It is also the
// protocol error returned by calls: server-reported errors keep the
// server's code, invalid envelopes detected on the client carry code 0.
type ErrResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (err *ErrResponse) Error() string {
	return fmt.Sprintf("%d: %s", err.Code, err.Message)
}

// ErrorCode returns the error code of the response.
func (err *ErrResponse) ErrorCode() int {
	return err.Code
}
