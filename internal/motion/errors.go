package motion

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-stream failures.
var (
	ErrStreamOpen = errors.New("cannot open stream")
	ErrFrameSize  = errors.New("frame size changed mid-stream")
	ErrFinished   = errors.New("detector already finished")
)

// StreamError attaches the failing stream to a per-stream error. It never
// aborts sibling streams.
type StreamError struct {
	StreamID string
	Err      error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.StreamID, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsOpenError reports whether err came from a stream that could not be
// opened.
func IsOpenError(err error) bool {
	return errors.Is(err, ErrStreamOpen)
}
