package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/motion/motiontest"
	"github.com/backmassage/motionbench/internal/strategy"
)

// --- Discover tests ---

func TestDiscover_RecursiveSorted(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp4")
	touch(t, dir, "a.avi")
	touch(t, dir, "notes.txt")
	if err := os.MkdirAll(filepath.Join(dir, "cam1"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "cam1"), "clip.mkv")

	streams, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"a.avi", "b.mp4", filepath.Join("cam1", "clip.mkv"), "notes.txt"}
	if got := ids(streams); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, s := range streams {
		if s.Path != filepath.Join(dir, s.ID) {
			t.Errorf("Path %q does not join to ID %q", s.Path, s.ID)
		}
	}
}

func TestDiscover_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "real.mp4")
	if err := os.Symlink(filepath.Join(dir, "real.mp4"), filepath.Join(dir, "link.mp4")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	streams, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := ids(streams); !sliceEqual(got, []string{"real.mp4"}) {
		t.Errorf("got %v, want [real.mp4]", got)
	}
}

func TestDiscover_SymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "clips")
	if err := os.MkdirAll(filepath.Join(target, "cam1"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, target, "a.mp4")
	touch(t, filepath.Join(target, "cam1"), "b.mp4")
	link := filepath.Join(dir, "videos")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	streams, err := Discover(link)
	if err != nil {
		t.Fatalf("Discover(symlink): %v", err)
	}
	want := []string{"a.mp4", filepath.Join("cam1", "b.mp4")}
	if got := ids(streams); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, s := range streams {
		if s.Path != filepath.Join(link, s.ID) {
			t.Errorf("Path = %q, want it under %q", s.Path, link)
		}
	}
}

func TestDiscover_Empty(t *testing.T) {
	streams, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(streams) != 0 {
		t.Errorf("got %d streams, want 0", len(streams))
	}
}

func TestDiscover_Errors(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "file.mp4")
	tests := []struct {
		name string
		path string
	}{
		{"missing directory", filepath.Join(dir, "absent")},
		{"regular file", filepath.Join(dir, "file.mp4")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(tt.path)
			if !errors.Is(err, ErrEnumeration) {
				t.Errorf("Discover(%q) error = %v, want ErrEnumeration", tt.path, err)
			}
		})
	}
}

// --- Run tests ---

func TestRunStreams_Serial(t *testing.T) {
	cfg, log, logBuf, src, streams := runFixture(t)
	out := captureStdout(t)

	stats, err := runStreams(context.Background(), cfg, log, streams, strategy.Deps{Source: src, Log: log})
	if err != nil {
		t.Fatalf("runStreams: %v", err)
	}
	if stats.Strategy != "Serial" || stats.Streams != 3 || stats.Failed != 1 || stats.Succeeded() != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.MotionFrames == 0 {
		t.Error("expected motion frames from the moving square")
	}
	if !strings.HasPrefix(out.String(), "Total execution time (Serial): ") {
		t.Errorf("timing line = %q", out.String())
	}
	if !strings.Contains(logBuf.String(), "2/3 stream(s) processed, 1 failed") {
		t.Errorf("summary missing from log:\n%s", logBuf.String())
	}
}

func TestRunStreams_SetupErrors(t *testing.T) {
	cfg, log, _, _, streams := runFixture(t)
	cfg.Strategy = config.StrategyProcesses
	captureStdout(t)

	if _, err := runStreams(context.Background(), cfg, log, streams, strategy.Deps{Log: log}); err == nil {
		t.Fatal("expected error for a process strategy without a spawner")
	}
}

func TestCompareStreams(t *testing.T) {
	cfg, log, _, src, streams := runFixture(t)
	out := captureStdout(t)

	rows, err := compareStreams(context.Background(), cfg, log, streams, func(*config.Config) strategy.Deps {
		return strategy.Deps{Source: src, Log: log, Spawner: &groupSpawner{src: src, log: log}}
	})
	if err != nil {
		t.Fatalf("compareStreams: %v", err)
	}
	if len(rows) != len(config.Strategies) {
		t.Fatalf("got %d rows, want %d", len(rows), len(config.Strategies))
	}
	base := rows[0].Stats
	for _, r := range rows {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Stats.Strategy, r.Err)
			continue
		}
		if r.Stats.Failed != 1 || r.Stats.MotionFrames != base.MotionFrames || r.Stats.Frames != base.Frames {
			t.Errorf("%s stats %+v differ from serial %+v", r.Stats.Strategy, r.Stats, base)
		}
	}
	for _, name := range []string{"Serial", "ThreadPool", "ProcessPool", "HybridProcessPool", "PipeAggregated", "SemaphoreGuarded"} {
		if !strings.Contains(out.String(), "  "+name+" ") {
			t.Errorf("table missing %s:\n%s", name, out.String())
		}
	}
}

func TestCompareStreams_NoStreams(t *testing.T) {
	cfg, log, logBuf, _, _ := runFixture(t)
	rows, err := compareStreams(context.Background(), cfg, log, nil, nil)
	if err != nil || rows != nil {
		t.Fatalf("got rows=%v err=%v, want nothing", rows, err)
	}
	if !strings.Contains(logBuf.String(), "No streams found") {
		t.Errorf("expected warning, got:\n%s", logBuf.String())
	}
}

// --- Buffer demo ---

func TestRunBufferDemo(t *testing.T) {
	cfg, log, logBuf, _, _ := runFixture(t)
	cfg.BufferCapacity = 2
	cfg.BufferItems = 6
	cfg.BufferDelay = time.Millisecond
	cfg.ObserveInterval = time.Millisecond

	if err := RunBufferDemo(context.Background(), cfg, log); err != nil {
		t.Fatalf("RunBufferDemo: %v", err)
	}
	logged := logBuf.String()
	if n := strings.Count(logged, "Producer produced "); n != 6 {
		t.Errorf("%d produce lines, want 6", n)
	}
	if n := strings.Count(logged, "Consumer consumed "); n != 6 {
		t.Errorf("%d consume lines, want 6", n)
	}
	if !strings.Contains(logged, "Production and consumption finished.") {
		t.Errorf("missing final line:\n%s", logged)
	}
}

func TestRunBufferDemo_Cancelled(t *testing.T) {
	cfg, log, _, _, _ := runFixture(t)
	cfg.BufferDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := RunBufferDemo(ctx, cfg, log); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// --- helpers ---

// runFixture discovers three files from a temp dir and backs two of them
// with synthetic frames; the third cannot be opened.
func runFixture(t *testing.T) (*config.Config, *logging.Logger, *bytes.Buffer, *motiontest.Source, []motion.Stream) {
	t.Helper()
	dir := t.TempDir()
	touch(t, dir, "moving.mp4")
	touch(t, dir, "still.mp4")
	touch(t, dir, "broken.mp4")

	streams, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	src := motiontest.NewSource()
	src.Add(filepath.Join(dir, "moving.mp4"), motiontest.MovingSquare(12, 6, 2, 5)...)
	bg := motiontest.Solid(12, 6, 10)
	src.Add(filepath.Join(dir, "still.mp4"), bg, bg, bg)
	src.FailOpen(filepath.Join(dir, "broken.mp4"), errors.New("moov atom not found"))

	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	cfg.ColorMode = config.ColorNever
	cfg.Processes = 2
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	log.SetOutput(&buf, &buf)
	return &cfg, log, &buf, src, streams
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

// groupSpawner runs worker groups on goroutines instead of child processes.
type groupSpawner struct {
	src motion.FrameSource
	log *logging.Logger
}

type groupHandle chan struct{}

func (h groupHandle) Wait() error {
	<-h
	return nil
}

func (s *groupSpawner) Spawn(ctx context.Context, req strategy.SpawnRequest) (strategy.WorkerHandle, error) {
	w, err := req.Channel.NewWriter()
	if err != nil {
		return nil, err
	}
	h := make(groupHandle)
	go func() {
		defer close(h)
		defer w.Close()
		g := strategy.Group{
			Source:  s.src,
			Options: motion.DefaultOptions(),
			Log:     s.log,
			Results: w,
			Threads: req.Threads,
			Pipe:    req.Pipe,
		}
		g.Run(ctx, req.Streams)
	}()
	return h, nil
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ids(streams []motion.Stream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.ID
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
