package render

import (
	"fmt"
	"io"
)

// DefaultSentinel marks the end of a streamed response
const DefaultSentinel = "FAULTLINE_STOP"

// Stream copies a response to w and terminates it with sentinel
func Stream(w io.Writer, r io.Reader, sentinel string) error {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to stream response: %w", err)
	}
	if _, err := io.WriteString(w, sentinel); err != nil {
		return fmt.Errorf("failed to write sentinel: %w", err)
	}
	return nil
}
