// Package config holds runtime configuration: defaults, the optional .env
// layer, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"time"
)

// --- Enum types for validated string fields ---

// Strategy selects how streams are mapped onto units of concurrency.
type Strategy string

const (
	StrategySerial    Strategy = "serial"    // One stream after another in the calling goroutine (default).
	StrategyThreads   Strategy = "threads"   // One goroutine per stream.
	StrategyProcesses Strategy = "processes" // N child processes over contiguous groups.
	StrategyHybrid    Strategy = "hybrid"    // N child processes, one goroutine per stream inside each.
	StrategyPipe      Strategy = "pipe"      // Workers write result lines into one pipe drained by the parent.
	StrategySemaphore Strategy = "semaphore" // One goroutine per stream, console guarded by a binary permit.
)

// Strategies lists every strategy in the order used by --compare.
var Strategies = []Strategy{
	StrategySerial,
	StrategyThreads,
	StrategyProcesses,
	StrategyHybrid,
	StrategyPipe,
	StrategySemaphore,
}

// InProcess reports whether the strategy runs all workers inside the
// current process (no child processes are spawned).
func (s Strategy) InProcess() bool {
	switch s {
	case StrategySerial, StrategyThreads, StrategySemaphore:
		return true
	}
	return false
}

// Transport selects what kind of worker writes into the result pipe.
type Transport string

const (
	TransportProcess Transport = "process" // One child process per stream (default).
	TransportThread  Transport = "thread"  // One goroutine per stream.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [LoadEnv], then [ParseFlags], and passed by pointer to packages that
// need it.
type Config struct {
	// Input (set by --input or the positional arg).
	InputDir string // Default: "videos".

	// Execution.
	Strategy      Strategy  // Default: "serial".
	Processes     int       // Default: 4. Partition count for processes/hybrid.
	PipeTransport Transport // Default: "process".
	Compare       bool      // Run every strategy and print a comparison table.

	// Detection.
	Threshold   int  // Default: 25. A pixel changed when |prev-cur| > Threshold.
	FirstMotion bool // Stop a stream after its first motion frame.
	Render      bool // Draw frames to the terminal (in-process strategies only).

	// Producer/consumer demo.
	BufferDemo      bool
	BufferCapacity  int           // Default: 5.
	BufferItems     int           // Default: 10.
	BufferDelay     time.Duration // Default: 1s. Pause after each produce/consume.
	ObserveInterval time.Duration // Default: 100ms.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.

	// Child worker mode (hidden flags set by the parent process).
	Worker        bool
	WorkerIndex   int
	WorkerThreads bool     // Fan the assigned streams out over goroutines.
	WorkerPipe    bool     // Write result lines to the inherited pipe (fd 3).
	WorkerStreams []string // Stream IDs relative to InputDir.
	RunID         string

	// ffmpeg probe constants (not user-configurable).
	FFmpegProbesize       string
	FFmpegAnalyzeDuration string
}

// DefaultConfig returns a Config with every default applied. Used as the
// base before [LoadEnv] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		InputDir:              "videos",
		Strategy:              StrategySerial,
		Processes:             4,
		PipeTransport:         TransportProcess,
		Threshold:             25,
		BufferCapacity:        5,
		BufferItems:           10,
		BufferDelay:           time.Second,
		ObserveInterval:       100 * time.Millisecond,
		ColorMode:             ColorAuto,
		FFmpegProbesize:       "32M",
		FFmpegAnalyzeDuration: "10M",
	}
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	if err := validateStrategy(c.Strategy); err != nil {
		return err
	}

	switch c.PipeTransport {
	case TransportProcess, TransportThread:
		// valid
	default:
		return errors.New("invalid pipe transport (use 'process' or 'thread')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.Processes < 1 {
		return fmt.Errorf("process count must be at least 1 (got %d)", c.Processes)
	}
	if c.Threshold < 0 || c.Threshold > 254 {
		return fmt.Errorf("threshold must be between 0 and 254 (got %d)", c.Threshold)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer capacity must be at least 1 (got %d)", c.BufferCapacity)
	}
	if c.BufferItems < 0 {
		return fmt.Errorf("buffer item count must not be negative (got %d)", c.BufferItems)
	}
	if c.BufferDelay < 0 || c.ObserveInterval <= 0 {
		return errors.New("buffer delay must be >= 0 and observe interval > 0")
	}

	if c.Render && (c.Compare || !c.Strategy.InProcess()) {
		return errors.New("--render needs an in-process strategy (serial, threads or semaphore) and no --compare")
	}

	if c.CheckOnly || c.BufferDemo {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	if c.Worker && len(c.WorkerStreams) == 0 {
		return errors.New("worker mode needs at least one stream")
	}
	return nil
}

func validateStrategy(s Strategy) error {
	for _, known := range Strategies {
		if s == known {
			return nil
		}
	}
	return errors.New("invalid strategy (use serial, threads, processes, hybrid, pipe or semaphore)")
}
