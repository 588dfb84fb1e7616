// Package pipeline ties discovery, strategy selection and reporting
// together for one invocation: a single run, the strategy comparison,
// or the bounded-buffer demo.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/display"
	"github.com/backmassage/motionbench/internal/ffmpeg"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/render"
	"github.com/backmassage/motionbench/internal/strategy"
	"github.com/backmassage/motionbench/internal/term"
)

// stdout receives the timing line and the comparison table.
var stdout io.Writer = os.Stdout

// Run discovers the streams under cfg.InputDir, runs them with the
// configured strategy and returns the aggregate stats. Per-stream failures
// are logged and counted; the returned error is non-nil only when the run
// could not start or its synchronization setup failed.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (RunStats, error) {
	streams, err := Discover(cfg.InputDir)
	if err != nil {
		return RunStats{}, err
	}
	deps := defaultDeps(cfg, log)
	if cfg.Render {
		deps.Renderer = render.New(os.Stdout, render.Options{
			Width: term.Width(os.Stdout),
			Color: term.Enabled(),
			Keys:  os.Stdin,
		})
	}
	return runStreams(ctx, cfg, log, streams, deps)
}

// defaultDeps wires the ffmpeg decoder and the re-exec spawner.
func defaultDeps(cfg *config.Config, log *logging.Logger) strategy.Deps {
	return strategy.Deps{
		Source:  ffmpeg.NewSource(cfg),
		Log:     log,
		Spawner: &strategy.ExecSpawner{Cfg: cfg},
	}
}

func runStreams(ctx context.Context, cfg *config.Config, log *logging.Logger, streams []motion.Stream, deps strategy.Deps) (RunStats, error) {
	s, err := strategy.New(cfg, deps)
	if err != nil {
		return RunStats{}, err
	}
	if len(streams) == 0 {
		log.Warn("No streams found in %s", cfg.InputDir)
	}
	log.Debug(cfg.Verbose, "Strategy %s over %d stream(s), %d process(es)", s.Name(), len(streams), cfg.Processes)

	start := time.Now()
	report := s.Run(ctx, streams)
	stats := statsFromReport(report, time.Since(start))
	stats.Strategy = s.Name()

	if report.Fatal() {
		return stats, report.Err
	}
	fmt.Fprintf(stdout, "Total execution time (%s): %s\n", stats.Strategy, display.FormatSeconds(stats.Elapsed))
	logSummary(cfg, log, &stats, report.Err)
	return stats, nil
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats, streamErrs error) {
	log.Debug(cfg.Verbose, "%d frame(s) (%s), %d result(s), %d with motion",
		stats.Frames, display.FormatBytes(stats.Bytes), stats.Results, stats.MotionFrames)
	if stats.Failed == 0 {
		log.Success("%d/%d stream(s) processed", stats.Succeeded(), stats.Streams)
		return
	}
	log.Warn("%d/%d stream(s) processed, %d failed", stats.Succeeded(), stats.Streams, stats.Failed)
	for _, err := range multierr.Errors(streamErrs) {
		log.Debug(cfg.Verbose, "  %v", err)
	}
}
