// Package motion detects movement in a stream by diffing consecutive
// grayscale frames.
//
// A Detector is a small state machine owned by exactly one worker:
//
//	INIT -> BASELINE (first frame, no result)
//	     -> RUNNING  (one Result per later frame)
//	     -> DONE     (frames exhausted, first motion seen, or playback stopped)
//	     -> ERROR    (the source failed to open or to produce a frame)
//
// The previous frame is kept for exactly one step and never shared.
package motion

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultThreshold is the per-pixel difference above which a pixel counts
// as changed.
const DefaultThreshold = 25

// State is the lifecycle position of a Detector.
type State int

const (
	StateInit State = iota
	StateBaseline
	StateRunning
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateBaseline:
		return "BASELINE"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options tune a Detector.
type Options struct {
	Threshold   int      // A pixel changed when |prev-cur| > Threshold.
	FirstMotion bool     // Finish after the first result with motion.
	Renderer    Renderer // Optional.
}

// DefaultOptions returns the fixed-threshold options used by every strategy.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Summary counts what one stream produced.
type Summary struct {
	Frames       int // Frames read, including the baseline.
	Results      int // Results emitted (Frames-1 when the stream ran to the end).
	MotionFrames int // Results with at least one changed pixel.
	Regions      int // Regions across all results.
	Bytes        int64
}

// Detector is the per-stream state machine.
type Detector struct {
	streamID string
	opts     Options
	state    State
	prev     Frame
	index    int
	summary  Summary
}

// NewDetector returns a Detector in StateInit.
func NewDetector(streamID string, opts Options) *Detector {
	return &Detector{streamID: streamID, opts: opts}
}

// State returns the current lifecycle state.
func (d *Detector) State() State { return d.state }

// Summary returns the counters accumulated so far.
func (d *Detector) Summary() Summary { return d.summary }

// Step feeds one frame. The first frame only becomes the baseline and ok is
// false; every later frame yields a Result, possibly without regions.
func (d *Detector) Step(f Frame) (res Result, ok bool, err error) {
	switch d.state {
	case StateDone, StateError:
		return Result{}, false, ErrFinished
	}
	if !f.Valid() {
		d.state = StateError
		return Result{}, false, fmt.Errorf("%w: %dx%d with %d samples", ErrFrameSize, f.Width, f.Height, len(f.Pix))
	}

	d.summary.Frames++
	d.summary.Bytes += int64(len(f.Pix))

	if d.state == StateInit {
		d.prev = f
		d.index = 0
		d.state = StateBaseline
		return Result{}, false, nil
	}

	mask, err := Diff(d.prev, f, d.opts.Threshold)
	if err != nil {
		d.state = StateError
		return Result{}, false, fmt.Errorf("frame %d: %w", d.index+1, err)
	}
	d.index++
	d.prev = f
	d.state = StateRunning

	res = Result{
		StreamID:      d.streamID,
		Index:         d.index,
		Regions:       FindRegions(mask),
		ChangedPixels: mask.Count,
	}
	d.summary.Results++
	d.summary.Regions += len(res.Regions)
	if res.HasMotion() {
		d.summary.MotionFrames++
	}
	return res, true, nil
}

// Run pulls frames from r until it is exhausted, handing every Result to fn
// in frame order. It returns nil when the stream ends normally (including a
// renderer stop or FirstMotion). Errors from r or fn move the detector to
// StateError.
func (d *Detector) Run(ctx context.Context, r FrameReader, fn func(Result) error) error {
	for {
		if err := ctx.Err(); err != nil {
			d.state = StateError
			return err
		}

		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			d.finish()
			return nil
		}
		if err != nil {
			d.state = StateError
			return fmt.Errorf("read frame %d: %w", d.summary.Frames, err)
		}

		res, ok, err := d.Step(f)
		if err != nil {
			return err
		}

		if d.opts.Renderer != nil {
			if err := d.opts.Renderer.Draw(f, res.Regions); err != nil {
				if errors.Is(err, ErrStopPlayback) {
					d.state = StateDone
					return nil
				}
				d.state = StateError
				return fmt.Errorf("render: %w", err)
			}
		}

		if !ok {
			continue
		}
		if err := fn(res); err != nil {
			d.state = StateError
			return err
		}
		if d.opts.FirstMotion && res.HasMotion() {
			d.state = StateDone
			return nil
		}
	}
}

func (d *Detector) finish() {
	if d.state != StateError {
		d.state = StateDone
	}
	d.prev = Frame{}
}

// Detect opens stream through src and runs a fresh Detector over it. Open
// failures are returned as a *StreamError wrapping ErrStreamOpen; the
// detector never reaches BASELINE in that case.
func Detect(ctx context.Context, src FrameSource, stream Stream, opts Options, fn func(Result) error) (Summary, error) {
	d := NewDetector(stream.ID, opts)

	r, err := src.Open(ctx, stream.Path)
	if err != nil {
		d.state = StateError
		return d.Summary(), &StreamError{StreamID: stream.ID, Err: fmt.Errorf("%w: %v", ErrStreamOpen, err)}
	}

	runErr := d.Run(ctx, r, fn)
	closeErr := r.Close()
	if runErr != nil {
		return d.Summary(), &StreamError{StreamID: stream.ID, Err: runErr}
	}
	if closeErr != nil && d.State() != StateDone {
		return d.Summary(), &StreamError{StreamID: stream.ID, Err: closeErr}
	}
	return d.Summary(), nil
}
