// Package motiontest provides an in-memory FrameSource for tests.
package motiontest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/backmassage/motionbench/internal/motion"
)

// Source serves pre-built frame sequences keyed by path. Paths listed in
// Fail refuse to open; paths without frames open as empty streams.
type Source struct {
	mu     sync.Mutex
	Frames map[string][]motion.Frame
	Fail   map[string]error

	opened atomic.Int64
	closed atomic.Int64
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{
		Frames: make(map[string][]motion.Frame),
		Fail:   make(map[string]error),
	}
}

// Add registers the frames for path.
func (s *Source) Add(path string, frames ...motion.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frames[path] = frames
}

// FailOpen makes path refuse to open with err.
func (s *Source) FailOpen(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[path] = err
}

// Open implements motion.FrameSource.
func (s *Source) Open(ctx context.Context, path string) (motion.FrameReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.Fail[path]; ok {
		return nil, err
	}
	frames, ok := s.Frames[path]
	if !ok {
		return nil, fmt.Errorf("%s: no such stream", path)
	}
	s.opened.Add(1)
	return &reader{frames: frames, src: s}, nil
}

// Opened returns how many readers were handed out.
func (s *Source) Opened() int { return int(s.opened.Load()) }

// Closed returns how many readers were closed.
func (s *Source) Closed() int { return int(s.closed.Load()) }

type reader struct {
	frames []motion.Frame
	next   int
	src    *Source
	done   bool
}

func (r *reader) Next() (motion.Frame, error) {
	if r.next >= len(r.frames) {
		return motion.Frame{}, io.EOF
	}
	f := r.frames[r.next]
	r.next++
	return f, nil
}

func (r *reader) Close() error {
	if !r.done {
		r.done = true
		r.src.closed.Add(1)
	}
	return nil
}

// Solid returns a w×h frame filled with v.
func Solid(w, h int, v uint8) motion.Frame {
	f := motion.NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// Block returns a copy of base with the rectangle [x0,x1)×[y0,y1) set to v.
func Block(base motion.Frame, x0, y0, x1, y1 int, v uint8) motion.Frame {
	f := motion.Frame{Width: base.Width, Height: base.Height, Pix: append([]uint8(nil), base.Pix...)}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			f.Set(x, y, v)
		}
	}
	return f
}

// MovingSquare returns n frames of a w×h black background with a size×size
// white square stepping one pixel right per frame.
func MovingSquare(w, h, size, n int) []motion.Frame {
	bg := Solid(w, h, 0)
	frames := make([]motion.Frame, n)
	for i := range frames {
		x := i % (w - size + 1)
		frames[i] = Block(bg, x, 1, x+size, 1+size, 255)
	}
	return frames
}
