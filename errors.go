package wirecall

import "fmt"

// TransportError is returned when a payload could not be delivered or a
// response body could not be read.
type TransportError struct {
	Cause error

	// Status is the HTTP status line when the failure was a rejected
	// status code.
	Status string
}

func (err TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", err.Cause)
}

func (err TransportError) Unwrap() error {
	return err.Cause
}

// ParseError is returned when a response body is not valid JSON.
type ParseError struct {
	Cause error
}

func (err ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %s", err.Cause)
}

func (err ParseError) Unwrap() error {
	return err.Cause
}

// UsageError is returned when a call violates the client contract, such
// as mixing positional and named arguments. It is raised before
// anything reaches the transport.
type UsageError string

func (err UsageError) Error() string {
	return string(err)
}

// errResponsef builds a protocol error for response envelopes that are
// invalid on arrival. These carry code 0, unlike server-reported errors
// which keep their own code.
func errResponsef(format string, args ...interface{}) *ErrResponse {
	return &ErrResponse{Message: fmt.Sprintf(format, args...)}
}
