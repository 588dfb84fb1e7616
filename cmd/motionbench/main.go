// Command motionbench runs frame-difference motion detection over every
// video under an input directory, using one of several concurrency
// strategies, and reports how long the run took.
//
// The same binary also serves as its own worker: process-based strategies
// re-execute it with hidden --worker flags and a result pipe on fd 3.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/backmassage/motionbench/internal/check"
	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/display"
	"github.com/backmassage/motionbench/internal/ffmpeg"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/pipeline"
	"github.com/backmassage/motionbench/internal/strategy"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Bootstrap: no logger yet, so errors go straight to stderr.
	cfg := config.DefaultConfig()
	if err := config.LoadEnv(&cfg, ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "motionbench: %v\n", err)
		return 1
	}
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "motionbench: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "motionbench: %v\n", err)
		return 1
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "motionbench: %v\n", err)
		return 1
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Worker {
		log.SetPrefix(fmt.Sprintf("w%d/%s", cfg.WorkerIndex, shortID(cfg.RunID)))
		return strategy.RunWorker(ctx, &cfg, ffmpeg.NewSource(&cfg), log)
	}

	display.PrintBanner()

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	if cfg.BufferDemo {
		if err := pipeline.RunBufferDemo(ctx, &cfg, log); err != nil {
			log.Error("Buffer demo: %v", err)
			return 1
		}
		return 0
	}

	log.Info("=== motionbench v%s (%s) ===", version, commit)
	log.Info("In:       %s", cfg.InputDir)
	log.Debug(cfg.Verbose, "Run ID:   %s", cfg.RunID)

	// Fail fast when the decoder is missing.
	if err := check.CheckDeps(); err != nil {
		log.Error("%v", err)
		return 1
	}

	if cfg.Compare {
		if _, err := pipeline.Compare(ctx, &cfg, log); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	_, err = pipeline.Run(ctx, &cfg, log)
	if ctx.Err() != nil {
		log.Warn("Interrupted")
	}
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

// shortID trims a run ID for log prefixes.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
