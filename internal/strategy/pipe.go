package strategy

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/resultchan"
)

// PipeAggregated gives every stream its own worker, a child process or a
// goroutine, writing result lines into one shared result channel. The
// calling goroutine is the only reader: it drains until every writer end
// is closed and then prints what it received.
type PipeAggregated struct {
	spawner Spawner            // process transport
	src     motion.FrameSource // goroutine transport
	opts    motion.Options
	log     *logging.Logger
}

// NewPipeAggregated uses child processes when spawner is non-nil and
// goroutines reading from src otherwise.
func NewPipeAggregated(spawner Spawner, src motion.FrameSource, opts motion.Options, log *logging.Logger) *PipeAggregated {
	return &PipeAggregated{spawner: spawner, src: src, opts: opts, log: log}
}

func (p *PipeAggregated) Name() string { return "PipeAggregated" }

func (p *PipeAggregated) Run(ctx context.Context, streams []motion.Stream) Report {
	if p.spawner != nil {
		return runProcesses(ctx, p.Name(), p.spawner, p.log, streams, Partition(streams, len(streams)), false, true)
	}
	return p.runGoroutines(ctx, streams)
}

func (p *PipeAggregated) runGoroutines(ctx context.Context, streams []motion.Stream) Report {
	r := Report{Strategy: p.Name(), Streams: len(streams)}
	ch, err := resultchan.New()
	if err != nil {
		return setupError(r, "result channel", err)
	}

	// Every writer exists before the reader starts, so the channel cannot
	// reach end-of-stream early.
	writers := make([]*resultchan.Writer, len(streams))
	for i := range streams {
		if writers[i], err = ch.NewWriter(); err != nil {
			for _, w := range writers[:i] {
				w.Close()
			}
			_ = ch.Drain(func(string) {})
			return setupError(r, "result channel writer", err)
		}
	}

	var (
		mu      sync.Mutex
		sendErr error
		g       errgroup.Group
	)
	for i, st := range streams {
		w := writers[i]
		g.Go(func() error {
			defer w.Close()
			grp := Group{Source: p.src, Options: p.opts, Log: p.log, Results: w, Pipe: true}
			if _, err := grp.Run(ctx, []motion.Stream{st}); err != nil {
				mu.Lock()
				sendErr = multierr.Append(sendErr, err)
				mu.Unlock()
			}
			return nil
		})
	}

	col := newCollector(&r, true)
	drainErr := ch.Drain(col.handle)
	_ = g.Wait()
	r.Err = multierr.Combine(r.Err, sendErr, drainErr)

	col.flush(ConsoleSink{Log: p.log})
	col.finish(streams)
	return r
}
