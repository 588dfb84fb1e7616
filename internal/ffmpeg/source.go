package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/motion"
	"github.com/backmassage/motionbench/internal/probe"
)

// Source implements motion.FrameSource with one ffmpeg process per opened
// stream. Geometry comes from ffprobe before the decoder starts.
type Source struct {
	cfg   *config.Config
	probe func(ctx context.Context, path string) (*probe.Result, error)
}

// NewSource returns a Source that decodes with the given settings.
func NewSource(cfg *config.Config) *Source {
	return &Source{cfg: cfg, probe: probe.Probe}
}

// Open probes path and starts the decoder. Any failure here means the
// stream cannot be opened; no process is left running.
func (s *Source) Open(ctx context.Context, path string) (motion.FrameReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	info, err := s.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	args := BuildDecode(s.cfg, path)
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	r := &reader{
		path:   path,
		cmd:    cmd,
		cancel: cancel,
		width:  info.Video.Width,
		height: info.Video.Height,
	}
	if s.cfg.Verbose {
		cmd.Stderr = io.MultiWriter(&r.stderr, os.Stderr)
	} else {
		cmd.Stderr = &r.stderr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	r.out = bufio.NewReaderSize(stdout, r.width*r.height)
	return r, nil
}

type reader struct {
	path   string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	out    *bufio.Reader
	stderr bytes.Buffer // read only after Wait returns

	width, height int
	frames        int
	done          bool
}

// Next reads exactly one frame. A trailing partial frame is discarded and
// treated as the end of the stream.
func (r *reader) Next() (motion.Frame, error) {
	if r.done {
		return motion.Frame{}, io.EOF
	}
	f := motion.NewFrame(r.width, r.height)
	_, err := io.ReadFull(r.out, f.Pix)
	switch {
	case err == nil:
		r.frames++
		return f, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if werr := r.wait(); werr != nil {
			return motion.Frame{}, werr
		}
		return motion.Frame{}, io.EOF
	default:
		return motion.Frame{}, fmt.Errorf("read frame %d: %w", r.frames, err)
	}
}

// Close stops the decoder if frames remain unread. Errors from a killed
// process are expected and dropped.
func (r *reader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	r.cancel()
	_ = r.cmd.Wait()
	return nil
}

func (r *reader) wait() error {
	r.done = true
	err := r.cmd.Wait()
	r.cancel()
	if err == nil {
		return nil
	}
	msg := lastLine(r.stderr.String())
	if msg == "" {
		return fmt.Errorf("ffmpeg %s: %w: %v", r.path, ErrDecode, err)
	}
	return fmt.Errorf("ffmpeg %s: %w: %s", r.path, Classify(msg), msg)
}
