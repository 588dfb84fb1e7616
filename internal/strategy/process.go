package strategy

import (
	"context"

	"go.uber.org/multierr"

	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/resultchan"
)

// ProcessPool splits the streams into N contiguous groups and runs each
// non-empty group in its own worker process, streams in order.
type ProcessPool struct {
	spawner Spawner
	n       int
	log     *logging.Logger
}

func NewProcessPool(spawner Spawner, n int, log *logging.Logger) *ProcessPool {
	return &ProcessPool{spawner: spawner, n: n, log: log}
}

func (p *ProcessPool) Name() string { return "ProcessPool" }

func (p *ProcessPool) Run(ctx context.Context, streams []motion.Stream) Report {
	return runProcesses(ctx, p.Name(), p.spawner, p.log, streams, Partition(streams, p.n), false, false)
}

// HybridProcessPool partitions like ProcessPool; inside each worker the
// group's streams run on one goroutine each.
type HybridProcessPool struct {
	spawner Spawner
	n       int
	log     *logging.Logger
}

func NewHybridProcessPool(spawner Spawner, n int, log *logging.Logger) *HybridProcessPool {
	return &HybridProcessPool{spawner: spawner, n: n, log: log}
}

func (h *HybridProcessPool) Name() string { return "HybridProcessPool" }

func (h *HybridProcessPool) Run(ctx context.Context, streams []motion.Stream) Report {
	return runProcesses(ctx, h.Name(), h.spawner, h.log, streams, Partition(streams, h.n), true, false)
}

// runProcesses spawns one worker per non-empty group, drains the shared
// result channel until every worker has closed its end, then waits for all
// of them regardless of exit status.
func runProcesses(ctx context.Context, name string, spawner Spawner, log *logging.Logger,
	streams []motion.Stream, groups [][]motion.Stream, threads, pipe bool) Report {
	r := Report{Strategy: name, Streams: len(streams)}
	ch, err := resultchan.New()
	if err != nil {
		return setupError(r, "result channel", err)
	}

	var handles []WorkerHandle
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		h, err := spawner.Spawn(ctx, SpawnRequest{
			Index:   i,
			Streams: g,
			Threads: threads,
			Pipe:    pipe,
			Channel: ch,
		})
		if err != nil {
			log.Error("%s: %v", name, err)
			r.Err = multierr.Append(r.Err, err)
			continue
		}
		handles = append(handles, h)
	}

	col := newCollector(&r, pipe)
	drainErr := ch.Drain(col.handle)
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			log.Error("%s: %v", name, err)
			r.Err = multierr.Append(r.Err, err)
		}
	}
	r.Err = multierr.Append(r.Err, drainErr)

	col.flush(ConsoleSink{Log: log})
	col.finish(streams)
	return r
}
