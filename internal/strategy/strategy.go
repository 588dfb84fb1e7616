// Package strategy maps a batch of streams onto units of concurrency and
// collects the outcome.
//
// Every strategy honours the same contract: a failing stream is reported
// and counted but never stops its siblings, and Run returns only after
// every worker it started has finished. Only a failure to create the
// synchronization machinery itself (a pipe, a permit) is fatal; such errors
// wrap ErrSetup.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
)

// ErrSetup marks a fatal failure to create a channel or permit.
var ErrSetup = errors.New("synchronization setup failed")

// Strategy runs a batch of streams.
type Strategy interface {
	Name() string
	Run(ctx context.Context, streams []motion.Stream) Report
}

// Report aggregates the outcome of one Run. Err combines every per-stream
// and per-worker failure; it wraps ErrSetup only when the run could not
// start.
type Report struct {
	Strategy     string
	Streams      int
	Failed       int
	Frames       int
	Results      int
	MotionFrames int
	Bytes        int64 // Decoded frame bytes.
	Err          error
}

// Fatal reports whether the run failed as a whole.
func (r *Report) Fatal() bool { return errors.Is(r.Err, ErrSetup) }

func (r *Report) add(o outcome) {
	r.Frames += o.Summary.Frames
	r.Results += o.Summary.Results
	r.MotionFrames += o.Summary.MotionFrames
	r.Bytes += o.Summary.Bytes
	if o.Err != nil {
		r.Failed++
		r.Err = multierr.Append(r.Err, o.Err)
	}
}

func setupError(r Report, what string, err error) Report {
	r.Err = multierr.Append(r.Err, fmt.Errorf("%w: %s: %v", ErrSetup, what, err))
	return r
}

// Deps are the collaborators shared by all strategies.
type Deps struct {
	Source   motion.FrameSource
	Log      *logging.Logger
	Spawner  Spawner         // Required by the process-based strategies.
	Renderer motion.Renderer // Optional; in-process strategies only.
}

// New builds the strategy selected by cfg.
func New(cfg *config.Config, deps Deps) (Strategy, error) {
	opts := motion.Options{Threshold: cfg.Threshold, FirstMotion: cfg.FirstMotion}
	local := opts
	if cfg.Strategy.InProcess() {
		local.Renderer = deps.Renderer
	}

	needsSpawner := false
	var s Strategy
	switch cfg.Strategy {
	case config.StrategySerial:
		s = NewSerial(deps.Source, local, deps.Log)
	case config.StrategyThreads:
		s = NewThreadPool(deps.Source, local, deps.Log)
	case config.StrategySemaphore:
		s = NewSemaphoreGuarded(deps.Source, local, deps.Log)
	case config.StrategyProcesses:
		s = NewProcessPool(deps.Spawner, cfg.Processes, deps.Log)
		needsSpawner = true
	case config.StrategyHybrid:
		s = NewHybridProcessPool(deps.Spawner, cfg.Processes, deps.Log)
		needsSpawner = true
	case config.StrategyPipe:
		if cfg.PipeTransport == config.TransportThread {
			s = NewPipeAggregated(nil, deps.Source, opts, deps.Log)
		} else {
			s = NewPipeAggregated(deps.Spawner, nil, opts, deps.Log)
			needsSpawner = true
		}
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	if needsSpawner && deps.Spawner == nil {
		return nil, fmt.Errorf("strategy %s needs a process spawner", s.Name())
	}
	if !needsSpawner && deps.Source == nil {
		return nil, fmt.Errorf("strategy %s needs a frame source", s.Name())
	}
	return s, nil
}
