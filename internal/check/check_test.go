package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/backmassage/motionbench/internal/config"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordLogger) Info(f string, a ...interface{}) { r.add("INFO", f, a...) }
func (r *recordLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recordLogger) Warn(f string, a ...interface{}) { r.add("WARN", f, a...) }
func (r *recordLogger) Error(f string, a ...interface{}) { r.add("ERROR", f, a...) }
func (r *recordLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("DEBUG", f, a...)
	}
}

func TestCheckDeps_EmptyPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if err := CheckDeps(); !errors.Is(err, ErrFfmpegNotFound) {
		t.Errorf("CheckDeps() = %v, want ErrFfmpegNotFound", err)
	}
}

func TestRunCheck_WithoutTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.DefaultConfig()
	var log recordLogger
	RunCheck(&cfg, &log)

	joined := strings.Join(log.lines, "\n")
	for _, want := range []string{"ERROR ffmpeg not found", "ERROR ffprobe not found", "ERROR Gray decode test failed", "INFO CPUs: "} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestSelfTest(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	n, err := SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if want := testWidth * testHeight * testFrames; n != want {
		t.Errorf("SelfTest read %d bytes, want %d", n, want)
	}
}
