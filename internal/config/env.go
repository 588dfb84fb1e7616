package config

// This file implements the environment layer. Values from a .env file in the
// working directory (if any) and from MOTIONBENCH_* variables are applied on
// top of DefaultConfig and below CLI flags.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvInput     = "MOTIONBENCH_INPUT"
	EnvStrategy  = "MOTIONBENCH_STRATEGY"
	EnvProcesses = "MOTIONBENCH_PROCESSES"
	EnvThreshold = "MOTIONBENCH_THRESHOLD"
	EnvLog       = "MOTIONBENCH_LOG"
	EnvColor     = "MOTIONBENCH_COLOR"
)

// LoadEnv loads envFile (when it exists) into the process environment and
// copies the MOTIONBENCH_* values into cfg. Variables already set in the
// environment win over the file. A missing file is not an error.
func LoadEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvInput); v != "" {
		cfg.InputDir = NormalizeDirArg(v)
	}
	if v := os.Getenv(EnvStrategy); v != "" {
		if err := (&strategyValue{&cfg.Strategy}).Set(v); err != nil {
			return fmt.Errorf("%s: %w", EnvStrategy, err)
		}
	}
	if v := os.Getenv(EnvProcesses); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be a whole number (got %q)", EnvProcesses, v)
		}
		cfg.Processes = n
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be a whole number (got %q)", EnvThreshold, v)
		}
		cfg.Threshold = n
	}
	if v := os.Getenv(EnvLog); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(EnvColor); v != "" {
		if err := (&colorModeValue{&cfg.ColorMode}).Set(v); err != nil {
			return fmt.Errorf("%s: %w", EnvColor, err)
		}
	}
	return nil
}
