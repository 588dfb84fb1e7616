package strategy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/resultchan"
)

// Worker process exit codes. 2 is left to the runtime, which uses it for
// an unrecovered panic.
const (
	ExitOK            = 0
	ExitSetup         = 1 // The result channel was unusable.
	ExitStreamsFailed = 3 // At least one stream failed; details went over the channel.
)

type outcome struct {
	StreamID string
	Summary  motion.Summary
	Err      error
}

// runStream drives one detector to completion, reporting through sink.
// The returned error is always a *motion.StreamError.
func runStream(ctx context.Context, src motion.FrameSource, opts motion.Options, sink Sink, s motion.Stream) outcome {
	if err := sink.Emit(startEvent(s.ID)); err != nil {
		return outcome{StreamID: s.ID, Err: &motion.StreamError{StreamID: s.ID, Err: err}}
	}
	sum, err := motion.Detect(ctx, src, s, opts, func(r motion.Result) error {
		for _, line := range motion.Lines(r) {
			if err := sink.Emit(motionEvent(s.ID, line)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = sink.Emit(errorEvent(s.ID, err))
	}
	return outcome{StreamID: s.ID, Summary: sum, Err: err}
}

// Group is the work of one worker process: a contiguous slice of streams,
// run in order or fanned out over goroutines. A done event for every
// stream goes to Results; with Pipe set the console events go there too,
// otherwise they are printed through Log.
type Group struct {
	Source  motion.FrameSource
	Options motion.Options
	Log     *logging.Logger
	Results *resultchan.Writer
	Threads bool
	Pipe    bool
}

// Run processes streams and returns how many failed. The error reports
// only failures to write to Results.
func (g Group) Run(ctx context.Context, streams []motion.Stream) (failed int, err error) {
	var sink Sink = ConsoleSink{Log: g.Log}
	if g.Pipe {
		sink = ChannelSink{W: g.Results}
	}

	var mu sync.Mutex
	finish := func(o outcome) {
		werr := g.Results.WriteLine(doneEvent(o.StreamID, o).Encode())
		mu.Lock()
		defer mu.Unlock()
		if o.Err != nil {
			failed++
		}
		err = multierr.Append(err, werr)
	}

	if !g.Threads {
		for _, s := range streams {
			finish(runStream(ctx, g.Source, g.Options, sink, s))
		}
		return failed, err
	}

	var eg errgroup.Group
	for _, s := range streams {
		eg.Go(func() error {
			finish(runStream(ctx, g.Source, g.Options, sink, s))
			return nil
		})
	}
	_ = eg.Wait()
	return failed, err
}

// openResults adopts the inherited result channel. The descriptor is
// marked close-on-exec so decoders started by this worker do not hold a
// write end open.
func openResults() (*resultchan.Writer, error) {
	if _, err := unix.FcntlInt(resultchan.ChildFD, unix.F_GETFD, 0); err != nil {
		return nil, fmt.Errorf("no result channel on fd %d: %w", resultchan.ChildFD, err)
	}
	unix.CloseOnExec(resultchan.ChildFD)
	return resultchan.OpenWriter(os.NewFile(resultchan.ChildFD, "resultchan")), nil
}

// RunWorker is the entry point of a child process started by ExecSpawner.
// The result channel is inherited on descriptor resultchan.ChildFD.
func RunWorker(ctx context.Context, cfg *config.Config, src motion.FrameSource, log *logging.Logger) int {
	w, err := openResults()
	if err != nil {
		log.Error("worker %d: %v", cfg.WorkerIndex, err)
		return ExitSetup
	}
	defer w.Close()

	streams := make([]motion.Stream, len(cfg.WorkerStreams))
	for i, id := range cfg.WorkerStreams {
		streams[i] = motion.Stream{ID: id, Path: filepath.Join(cfg.InputDir, id)}
	}

	g := Group{
		Source:  src,
		Options: motion.Options{Threshold: cfg.Threshold, FirstMotion: cfg.FirstMotion},
		Log:     log,
		Results: w,
		Threads: cfg.WorkerThreads,
		Pipe:    cfg.WorkerPipe,
	}
	log.Debug(cfg.Verbose, "worker %d: %d streams (threads=%t pipe=%t)", cfg.WorkerIndex, len(streams), g.Threads, g.Pipe)

	failed, err := g.Run(ctx, streams)
	if err != nil {
		log.Error("worker %d: %v", cfg.WorkerIndex, fmt.Errorf("result channel: %w", err))
		return ExitSetup
	}
	if failed > 0 {
		return ExitStreamsFailed
	}
	return ExitOK
}
