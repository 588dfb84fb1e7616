// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) for ffmpeg and ffprobe.
package check

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/ffmpeg"
	"github.com/backmassage/motionbench/internal/term"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// Self-test geometry for the gray decode check.
const (
	testWidth  = 64
	testHeight = 48
	testFrames = 3
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow. It is informational only and
// does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkTool(log, "ffmpeg")
	checkTool(log, "ffprobe")
	checkGrayDecode(cfg, log)

	log.Info("CPUs: %d", runtime.NumCPU())
	if cols, rows, ok := term.Size(os.Stdout); ok {
		log.Info("Terminal: %dx%d, colors %v", cols, rows, term.Enabled())
	} else {
		log.Info("Terminal: not a TTY (render width %d)", term.DefaultWidth)
	}
}

// checkTool verifies name is on PATH and logs its version line.
func checkTool(log Logger, name string) {
	if _, err := exec.LookPath(name); err != nil {
		log.Error("%s not found", name)
		return
	}
	out, err := exec.Command(name, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	log.Success("%s: %s", name, first)
}

// checkGrayDecode decodes a few synthetic frames to raw gray and verifies
// the byte count.
func checkGrayDecode(cfg *config.Config, log Logger) {
	log.Info("Testing gray rawvideo decode...")
	n, err := SelfTest()
	if err != nil {
		log.Error("Gray decode test failed: %v", err)
		return
	}
	log.Debug(cfg.Verbose, "Decoded %d bytes", n)
	log.Success("Gray decode works (%dx%d)", testWidth, testHeight)
}

// SelfTest decodes testFrames synthetic frames and returns the number of
// bytes read. The count must equal width*height*frames.
func SelfTest() (int, error) {
	args := ffmpeg.BuildSelfTest(testWidth, testHeight, testFrames)
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%w (%v)", ffmpeg.Classify(stderr.String()), err)
	}
	want := testWidth * testHeight * testFrames
	if stdout.Len() != want {
		return stdout.Len(), fmt.Errorf("got %d bytes, want %d", stdout.Len(), want)
	}
	return stdout.Len(), nil
}

// CheckDeps is the pre-run validation: ffmpeg and ffprobe must be on PATH.
func CheckDeps() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	return nil
}
