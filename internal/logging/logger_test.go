package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/backmassage/motionbench/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	l.SetOutput(&out, &errOut)
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	l, out, _ := newTestLogger(t)
	defer l.Close()
	l.Info("test message")
	if !strings.Contains(out.String(), "[INFO] test message") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "motionbench.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	l.Motion("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("MOTION")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestErrorGoesToStderr(t *testing.T) {
	l, out, errOut := newTestLogger(t)
	l.Error("boom")
	if out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[ERROR] boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPrefixAndDebug(t *testing.T) {
	l, out, _ := newTestLogger(t)
	l.SetPrefix("w1/abcd")
	l.Debug(false, "hidden")
	l.Debug(true, "shown")
	got := out.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("non-verbose debug line written: %q", got)
	}
	if !strings.Contains(got, "[DEBUG] [w1/abcd] shown") {
		t.Errorf("prefixed debug line missing: %q", got)
	}
}

func TestConcurrentLinesStayWhole(t *testing.T) {
	l, out, _ := newTestLogger(t)
	const workers, perWorker = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Info("worker %d line %d end", w, i)
			}
		}(w)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != workers*perWorker {
		t.Fatalf("got %d lines, want %d", len(lines), workers*perWorker)
	}
	seen := make(map[string]bool)
	for _, line := range lines {
		if !strings.HasSuffix(line, " end") || !strings.Contains(line, "[INFO] worker ") {
			t.Fatalf("interleaved line: %q", line)
		}
		seen[line[strings.Index(line, "worker"):]] = true
	}
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			if !seen[fmt.Sprintf("worker %d line %d end", w, i)] {
				t.Errorf("missing worker %d line %d", w, i)
			}
		}
	}
}
