package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into execution, detection, buffer demo, display, utility,
// and the hidden worker group used by child processes.
// Negated flags (e.g. --no-color) are applied after Parse so defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and exits.
// On error it returns non-nil (e.g. unknown flag, extra positional args).
func ParseFlags(cfg *Config, version string) error {
	return ParseArgs(cfg, version, os.Args[1:])
}

// ParseArgs is ParseFlags over an explicit argument list.
func ParseArgs(cfg *Config, version string, args []string) error {
	fs := flag.NewFlagSet("motionbench", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var negated negatedFlags

	defineExecutionFlags(fs, cfg)
	defineDetectionFlags(fs, cfg)
	defineBufferFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)
	defineWorkerFlags(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "motionbench v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineExecutionFlags registers -i/--input, -s/--strategy, -n/--processes, --pipe-transport, --compare.
func defineExecutionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&dirValue{&cfg.InputDir}, "input", "Input directory (one stream per regular file)")
	fs.Var(&dirValue{&cfg.InputDir}, "i", "Same as --input")
	fs.Var(&strategyValue{&cfg.Strategy}, "strategy", "serial | threads | processes | hybrid | pipe | semaphore")
	fs.Var(&strategyValue{&cfg.Strategy}, "s", "Same as --strategy")
	fs.IntVar(&cfg.Processes, "processes", cfg.Processes, "Process count for processes/hybrid")
	fs.IntVar(&cfg.Processes, "n", cfg.Processes, "Same as --processes")
	fs.Var(&transportValue{&cfg.PipeTransport}, "pipe-transport", "Pipe writers: process | thread")
	fs.BoolVar(&cfg.Compare, "compare", false, "Run every strategy and compare timings")
}

// defineDetectionFlags registers -t/--threshold, --first-motion, --render.
func defineDetectionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Changed-pixel threshold (0-254)")
	fs.IntVar(&cfg.Threshold, "t", cfg.Threshold, "Same as --threshold")
	fs.BoolVar(&cfg.FirstMotion, "first-motion", false, "Stop each stream at its first motion frame")
	fs.BoolVar(&cfg.Render, "render", false, "Draw frames and regions in the terminal")
}

// defineBufferFlags registers the producer/consumer demo flags.
func defineBufferFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.BufferDemo, "buffer-demo", false, "Run the bounded-buffer producer/consumer demo")
	fs.IntVar(&cfg.BufferCapacity, "capacity", cfg.BufferCapacity, "Bounded buffer capacity")
	fs.IntVar(&cfg.BufferItems, "items", cfg.BufferItems, "Items produced and consumed")
	fs.DurationVar(&cfg.BufferDelay, "buffer-delay", cfg.BufferDelay, "Pause after each produce/consume")
	fs.DurationVar(&cfg.ObserveInterval, "observe-interval", cfg.ObserveInterval, "Buffer observer refresh interval")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --check, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// defineWorkerFlags registers the hidden flags the parent passes to child
// worker processes. They are not listed in the help text.
func defineWorkerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Worker, "worker", false, "internal: run as a child worker")
	fs.IntVar(&cfg.WorkerIndex, "worker-index", 0, "internal: child worker index")
	fs.BoolVar(&cfg.WorkerThreads, "worker-threads", false, "internal: one goroutine per assigned stream")
	fs.BoolVar(&cfg.WorkerPipe, "worker-pipe", false, "internal: write results to fd 3")
	fs.StringVar(&cfg.RunID, "run-id", "", "internal: parent run ID")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs treats every positional arg as a stream ID in worker
// mode; otherwise at most one positional arg is accepted as the input dir.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.Worker {
		cfg.WorkerStreams = append([]string(nil), args...)
		return nil
	}
	switch len(args) {
	case 0:
		return nil
	case 1:
		cfg.InputDir = NormalizeDirArg(args[0])
		return nil
	default:
		return fmt.Errorf("expected at most one input directory (got %d args)", len(args))
	}
}

// WorkerArgs builds the hidden argument list for a child worker process.
// It is the inverse of the worker branch of ParseArgs. ColorAuto is not
// forwarded, so callers should pass the mode they resolved.
func WorkerArgs(cfg *Config, index int, threads, pipe bool, streamIDs []string) []string {
	args := []string{
		"--worker",
		"--worker-index", strconv.Itoa(index),
		"--input", cfg.InputDir,
		"--threshold", strconv.Itoa(cfg.Threshold),
		"--run-id", cfg.RunID,
	}
	switch cfg.ColorMode {
	case ColorAlways:
		args = append(args, "--color")
	case ColorNever:
		args = append(args, "--no-color")
	}
	if cfg.LogFile != "" {
		args = append(args, "--log", cfg.LogFile)
	}
	if threads {
		args = append(args, "--worker-threads")
	}
	if pipe {
		args = append(args, "--worker-pipe")
	}
	if cfg.FirstMotion {
		args = append(args, "--first-motion")
	}
	if cfg.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, "--")
	return append(args, streamIDs...)
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "motionbench v" + version + " - motion detection over a batch of video streams"},
		{"", ""},
		{"  motionbench [OPTIONS] [input_dir]", ""},
		{"", ""},
		{"Execution", ""},
		{"  -i, --input <dir>", "Input directory (default: videos)"},
		{"  -s, --strategy <name>", "serial | threads | processes | hybrid | pipe | semaphore"},
		{"  -n, --processes <N>", "Process count for processes/hybrid (default: 4)"},
		{"  --pipe-transport <kind>", "Pipe writers: process | thread (default: process)"},
		{"  --compare", "Run every strategy and print a timing table"},
		{"", ""},
		{"Detection", ""},
		{"  -t, --threshold <0-254>", "Changed-pixel threshold (default: 25)"},
		{"  --first-motion", "Stop each stream at its first motion frame"},
		{"  --render", "Draw frames in the terminal; Enter skips a stream"},
		{"", ""},
		{"Producer/consumer demo", ""},
		{"  --buffer-demo", "Run the bounded-buffer demo instead of detection"},
		{"  --capacity <N>", "Buffer capacity (default: 5)"},
		{"  --items <N>", "Items produced and consumed (default: 10)"},
		{"  --buffer-delay <dur>", "Pause after each step (default: 1s)"},
		{"  --observe-interval <dur>", "Observer refresh (default: 100ms)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, decode test)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types with flag.Var.

type strategyValue struct{ p *Strategy }

func (s *strategyValue) String() string {
	if s.p == nil {
		return ""
	}
	return string(*s.p)
}

func (s *strategyValue) Set(v string) error {
	candidate := Strategy(strings.ToLower(strings.TrimSpace(v)))
	if err := validateStrategy(candidate); err != nil {
		return fmt.Errorf("invalid strategy %q (use serial, threads, processes, hybrid, pipe or semaphore)", v)
	}
	*s.p = candidate
	return nil
}

type transportValue struct{ p *Transport }

func (t *transportValue) String() string {
	if t.p == nil {
		return ""
	}
	return string(*t.p)
}

func (t *transportValue) Set(v string) error {
	switch strings.ToLower(v) {
	case "process":
		*t.p = TransportProcess
	case "thread":
		*t.p = TransportThread
	default:
		return fmt.Errorf("invalid pipe transport %q (use 'process' or 'thread')", v)
	}
	return nil
}

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}

func (c *colorModeValue) Set(v string) error {
	switch strings.ToLower(v) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", v)
	}
	return nil
}

type dirValue struct{ p *string }

func (d *dirValue) String() string {
	if d.p == nil {
		return ""
	}
	return *d.p
}

func (d *dirValue) Set(v string) error {
	*d.p = NormalizeDirArg(v)
	return nil
}
