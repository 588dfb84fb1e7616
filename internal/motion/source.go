package motion

import (
	"context"
	"errors"
)

// FrameSource opens streams for decoding.
type FrameSource interface {
	// Open prepares path for reading. A failure here is a StreamOpenError
	// for that stream only.
	Open(ctx context.Context, path string) (FrameReader, error)
}

// FrameReader yields the frames of one opened stream. The sequence is lazy,
// finite and not restartable.
type FrameReader interface {
	// Next returns the next frame, or io.EOF once the stream is exhausted.
	// The returned frame is owned by the caller.
	Next() (Frame, error)
	Close() error
}

// Renderer draws an annotated frame for interactive viewing. It is never
// required for correctness.
type Renderer interface {
	// Draw shows f with regions highlighted. Returning ErrStopPlayback ends
	// the current stream early.
	Draw(f Frame, regions []Region) error
}

// ErrStopPlayback is returned by a Renderer when the viewer asked to stop
// (a keypress). The stream ends normally.
var ErrStopPlayback = errors.New("playback stopped")
