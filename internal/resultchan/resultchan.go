// Package resultchan carries newline-terminated text messages from many
// writers (goroutines or child processes) to one reader over an OS pipe.
//
// Each message goes out in a single write of at most MaxMessage bytes, the
// size POSIX guarantees to be atomic on a pipe, so messages from different
// writers never interleave. The reader sees end-of-stream once every write
// end is closed: the channel's own end (dropped by Seal), every Writer, and
// every copy inherited by a child process.
package resultchan

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// MaxMessage is the largest message, newline included.
const MaxMessage = 4096

// ChildFD is the descriptor number the write end gets in a child process
// when passed as the first entry of exec.Cmd.ExtraFiles.
const ChildFD = 3

var (
	ErrClosed         = errors.New("result channel closed")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d bytes", MaxMessage)
	ErrMultiline      = errors.New("message contains a newline")
)

// Channel owns both ends of the pipe until Seal.
type Channel struct {
	r *os.File

	mu     sync.Mutex // guards w and sealed
	w      *os.File
	sealed bool

	wmu sync.Mutex // serializes writes of all Writers in this process
}

// New creates the pipe.
func New() (*Channel, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	return &Channel{r: r, w: w}, nil
}

// File returns the channel's own write end for exec.Cmd.ExtraFiles. The
// child gets its own descriptor at Start, so the caller may Seal right
// after starting every child. It returns nil once sealed.
func (c *Channel) File() *os.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w
}

// NewWriter returns a writer holding its own reference to the write end.
func (c *Channel) NewWriter() (*Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return nil, ErrClosed
	}
	fd, err := unix.FcntlInt(c.w.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup write end: %w", err)
	}
	return &Writer{f: os.NewFile(uintptr(fd), "resultchan-writer"), mu: &c.wmu}, nil
}

// Seal drops the channel's own write reference. After Seal the reader
// reaches end-of-stream as soon as every Writer and child copy is closed.
// Calling Seal more than once is harmless.
func (c *Channel) Seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return nil
	}
	c.sealed = true
	err := c.w.Close()
	c.w = nil
	return err
}

// Drain seals the channel and calls fn with every message, without its
// newline, until all writers have closed. End-of-stream is normal
// completion. Drain closes the read end before returning.
func (c *Channel) Drain(fn func(msg string)) error {
	if err := c.Seal(); err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	defer c.r.Close()

	sc := bufio.NewScanner(c.r)
	sc.Buffer(make([]byte, 0, MaxMessage), MaxMessage)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

// Writer sends messages into a Channel.
type Writer struct {
	mu     *sync.Mutex
	f      *os.File
	closed bool
}

// OpenWriter wraps a write end inherited from the parent, typically
// os.NewFile(ChildFD, ...).
func OpenWriter(f *os.File) *Writer {
	return &Writer{f: f, mu: new(sync.Mutex)}
}

// WriteLine sends msg as one message. It fails with ErrMessageTooLong
// rather than splitting.
func (w *Writer) WriteLine(msg string) error {
	if strings.ContainsRune(msg, '\n') {
		return ErrMultiline
	}
	if len(msg)+1 > MaxMessage {
		return fmt.Errorf("%w (%d bytes)", ErrMessageTooLong, len(msg)+1)
	}
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close releases this writer's reference to the write end.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}
