package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/display"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/strategy"
	"github.com/backmassage/motionbench/internal/term"
)

// CompareRow is one line of the comparison table.
type CompareRow struct {
	Stats RunStats
	Err   error // Set when the strategy could not run at all.
}

// Compare runs every strategy over the same streams, one after another,
// and prints elapsed time and speedup relative to serial.
func Compare(ctx context.Context, cfg *config.Config, log *logging.Logger) ([]CompareRow, error) {
	streams, err := Discover(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	return compareStreams(ctx, cfg, log, streams, func(c *config.Config) strategy.Deps {
		return defaultDeps(c, log)
	})
}

func compareStreams(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	streams []motion.Stream,
	depsFor func(*config.Config) strategy.Deps,
) ([]CompareRow, error) {
	if len(streams) == 0 {
		log.Warn("No streams found in %s", cfg.InputDir)
		return nil, nil
	}

	var rows []CompareRow
	for _, st := range config.Strategies {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			return rows, ctx.Err()
		}
		run := *cfg
		run.Strategy = st
		run.Render = false
		log.Info("=== %s ===", st)
		stats, err := runStreams(ctx, &run, log, streams, depsFor(&run))
		if err != nil {
			log.Error("%s: %v", st, err)
		}
		if stats.Strategy == "" {
			stats.Strategy = string(st)
		}
		rows = append(rows, CompareRow{Stats: stats, Err: err})
	}

	fmt.Fprintln(stdout)
	printCompareTable(rows)
	return rows, nil
}

func printCompareTable(rows []CompareRow) {
	var base time.Duration
	if len(rows) > 0 && rows[0].Err == nil {
		base = rows[0].Stats.Elapsed
	}

	nameW := len("Strategy")
	for _, r := range rows {
		if len(r.Stats.Strategy) > nameW {
			nameW = len(r.Stats.Strategy)
		}
	}
	const timeW, speedW, failW = 10, 8, 6

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %s",
		nameW, "Strategy", timeW, "Time", speedW, "Speedup", failW, "Failed", "Motion")
	fmt.Fprintln(stdout, header)
	fmt.Fprintln(stdout, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(stdout, "  %-*s  %s\n", nameW, r.Stats.Strategy, colorPad("error", timeW, term.Red))
			continue
		}
		speed := display.FormatSpeedup(base, r.Stats.Elapsed)
		speedColor := ""
		switch {
		case base <= 0 || r.Stats.Elapsed <= 0:
		case r.Stats.Elapsed < base:
			speedColor = term.Green
		case r.Stats.Elapsed > base:
			speedColor = term.Orange
		}
		failColor := ""
		if r.Stats.Failed > 0 {
			failColor = term.Red
		}
		fmt.Fprintf(stdout, "  %-*s  %-*s  %s  %s  %d\n",
			nameW, r.Stats.Strategy,
			timeW, display.FormatSeconds(r.Stats.Elapsed),
			colorPad(speed, speedW, speedColor),
			colorPad(fmt.Sprint(r.Stats.Failed), failW, failColor),
			r.Stats.MotionFrames,
		)
	}
	fmt.Fprintln(stdout)
}

// colorPad pads s to width before wrapping it in color, so escape bytes do
// not count toward the column width.
func colorPad(s string, width int, color string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	if color == "" {
		return padded
	}
	return color + padded + term.NC
}
