package strategy

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
)

// Serial runs every stream to completion, one after another, in the
// calling goroutine.
type Serial struct {
	src  motion.FrameSource
	opts motion.Options
	log  *logging.Logger
}

func NewSerial(src motion.FrameSource, opts motion.Options, log *logging.Logger) *Serial {
	return &Serial{src: src, opts: opts, log: log}
}

func (s *Serial) Name() string { return "Serial" }

func (s *Serial) Run(ctx context.Context, streams []motion.Stream) Report {
	r := Report{Strategy: s.Name(), Streams: len(streams)}
	sink := ConsoleSink{Log: s.log}
	for _, st := range streams {
		r.add(runStream(ctx, s.src, s.opts, sink, st))
	}
	return r
}

// ThreadPool starts one goroutine per stream and waits for all of them.
type ThreadPool struct {
	src  motion.FrameSource
	opts motion.Options
	log  *logging.Logger
}

func NewThreadPool(src motion.FrameSource, opts motion.Options, log *logging.Logger) *ThreadPool {
	return &ThreadPool{src: src, opts: opts, log: log}
}

func (t *ThreadPool) Name() string { return "ThreadPool" }

func (t *ThreadPool) Run(ctx context.Context, streams []motion.Stream) Report {
	return fanOut(ctx, t.Name(), t.src, t.opts, ConsoleSink{Log: t.log}, streams)
}

// SemaphoreGuarded is a ThreadPool whose workers take a shared binary
// permit around every console message.
type SemaphoreGuarded struct {
	src  motion.FrameSource
	opts motion.Options
	log  *logging.Logger
}

func NewSemaphoreGuarded(src motion.FrameSource, opts motion.Options, log *logging.Logger) *SemaphoreGuarded {
	return &SemaphoreGuarded{src: src, opts: opts, log: log}
}

func (s *SemaphoreGuarded) Name() string { return "SemaphoreGuarded" }

func (s *SemaphoreGuarded) Run(ctx context.Context, streams []motion.Stream) Report {
	sink := NewGuardedSink(ctx, ConsoleSink{Log: s.log})
	return fanOut(ctx, s.Name(), s.src, s.opts, sink, streams)
}

// fanOut runs one goroutine per stream. Workers never return an error to
// the group, so one failure cannot cut the join short.
func fanOut(ctx context.Context, name string, src motion.FrameSource, opts motion.Options, sink Sink, streams []motion.Stream) Report {
	r := Report{Strategy: name, Streams: len(streams)}
	var mu sync.Mutex
	var g errgroup.Group
	for _, st := range streams {
		g.Go(func() error {
			o := runStream(ctx, src, opts, sink, st)
			mu.Lock()
			r.add(o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return r
}
