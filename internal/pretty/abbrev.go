// Package pretty holds small formatting helpers for log output.
package pretty

import "fmt"

// Abbrev wraps a payload so it renders truncated once it exceeds maxLen
// bytes. Rendering is deferred until the log line is actually written.
func Abbrev(payload []byte, maxLen int) Abbreviated {
	return Abbreviated{
		Original: payload,
		MaxLen:   maxLen,
	}
}

type Abbreviated struct {
	Original []byte
	MaxLen   int
}

func (a Abbreviated) String() string {
	if len(a.Original) > a.MaxLen {
		return fmt.Sprintf("%s… (%d bytes)", a.Original[:a.MaxLen], len(a.Original))
	}
	return string(a.Original)
}
