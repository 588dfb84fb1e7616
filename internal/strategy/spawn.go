package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/resultchan"
	"github.com/backmassage/motionbench/internal/term"
)

// SpawnRequest describes one worker process. Streams is owned by the
// worker; the parent does not touch it after Spawn.
type SpawnRequest struct {
	Index   int
	Streams []motion.Stream
	Threads bool // Fan the streams out over goroutines inside the worker.
	Pipe    bool // Send console events over Channel instead of printing them.
	Channel *resultchan.Channel
}

// WorkerHandle waits for a spawned worker.
type WorkerHandle interface {
	// Wait blocks until the worker exits. Stream failures reported over
	// the channel are not errors; a crash or setup failure is.
	Wait() error
}

// Spawner starts worker processes.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (WorkerHandle, error)
}

// ExecSpawner re-runs the current executable in hidden worker mode. The
// result channel becomes descriptor resultchan.ChildFD in the child.
type ExecSpawner struct {
	Cfg        *config.Config
	Executable string // Defaults to os.Executable().
	Stdout     io.Writer
	Stderr     io.Writer
}

func (s *ExecSpawner) Spawn(ctx context.Context, req SpawnRequest) (WorkerHandle, error) {
	exe := s.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
	}
	f := req.Channel.File()
	if f == nil {
		return nil, resultchan.ErrClosed
	}

	ids := make([]string, len(req.Streams))
	for i, st := range req.Streams {
		ids[i] = st.ID
	}
	cmd := exec.CommandContext(ctx, exe, config.WorkerArgs(childConfig(s.Cfg), req.Index, req.Threads, req.Pipe, ids)...)
	cmd.ExtraFiles = []*os.File{f}
	cmd.Stdout = orDefault(s.Stdout, os.Stdout)
	cmd.Stderr = orDefault(s.Stderr, os.Stderr)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", req.Index, err)
	}
	return execHandle{cmd: cmd, index: req.Index}, nil
}

// childConfig pins the color mode this process resolved so worker lines
// match the parent's.
func childConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.ColorMode = config.ColorNever
	if term.Enabled() {
		c.ColorMode = config.ColorAlways
	}
	return &c
}

type execHandle struct {
	cmd   *exec.Cmd
	index int
}

func (h execHandle) Wait() error {
	err := h.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == ExitStreamsFailed {
		return nil
	}
	if err != nil {
		return fmt.Errorf("worker %d: %w", h.index, err)
	}
	return nil
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
