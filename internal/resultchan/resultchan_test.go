package resultchan

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func message(writer, i int) string {
	// Vary the length so some messages are large enough to expose torn writes.
	pad := strings.Repeat("x", (i*97)%3000)
	return fmt.Sprintf("w%d m%d %s|", writer, i, pad)
}

func TestDrain_ConcurrentWriters(t *testing.T) {
	const writers, perWriter = 4, 200

	ch, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ws := make([]*Writer, writers)
	for i := range ws {
		if ws[i], err = ch.NewWriter(); err != nil {
			t.Fatalf("NewWriter: %v", err)
		}
	}

	var wg sync.WaitGroup
	for n, w := range ws {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.Close()
			for i := range perWriter {
				if err := w.WriteLine(message(n, i)); err != nil {
					t.Errorf("writer %d: %v", n, err)
					return
				}
			}
		}()
	}

	var got []string
	done := make(chan error, 1)
	go func() { done <- ch.Drain(func(m string) { got = append(got, m) }) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Drain: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Drain did not return after all writers closed")
	}
	wg.Wait()

	var want []string
	for n := range writers {
		for i := range perWriter {
			want = append(want, message(n, i))
		}
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d torn or missing: %.40q", i, got[i])
		}
	}
}

func TestDrain_PerWriterOrder(t *testing.T) {
	ch, _ := New()
	w, _ := ch.NewWriter()
	go func() {
		defer w.Close()
		for i := range 50 {
			w.WriteLine(fmt.Sprint(i))
		}
	}()
	var got []string
	if err := ch.Drain(func(m string) { got = append(got, m) }); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	for i, m := range got {
		if m != fmt.Sprint(i) {
			t.Fatalf("message %d = %q, out of order", i, m)
		}
	}
	if len(got) != 50 {
		t.Errorf("got %d messages, want 50", len(got))
	}
}

func TestDrain_NoWriters(t *testing.T) {
	ch, _ := New()
	n := 0
	if err := ch.Drain(func(string) { n++ }); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d messages from an empty channel", n)
	}
}

func TestWriteLine_Limits(t *testing.T) {
	ch, _ := New()
	w, _ := ch.NewWriter()
	defer ch.Drain(func(string) {})
	defer w.Close()

	if err := w.WriteLine(strings.Repeat("a", MaxMessage)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("oversized message: err = %v, want ErrMessageTooLong", err)
	}
	if err := w.WriteLine(strings.Repeat("a", MaxMessage-1)); err != nil {
		t.Errorf("largest allowed message: %v", err)
	}
	if err := w.WriteLine("two\nlines"); !errors.Is(err, ErrMultiline) {
		t.Errorf("multiline message: err = %v, want ErrMultiline", err)
	}
}

func TestWriter_Closed(t *testing.T) {
	ch, _ := New()
	w, _ := ch.NewWriter()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.WriteLine("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteLine after Close = %v, want ErrClosed", err)
	}
	if err := ch.Seal(); err != nil {
		t.Fatal(err)
	}
	if _, err := ch.NewWriter(); !errors.Is(err, ErrClosed) {
		t.Errorf("NewWriter after Seal = %v, want ErrClosed", err)
	}
	if ch.File() != nil {
		t.Error("File() after Seal should be nil")
	}
	ch.Drain(func(string) {})
}

// TestHelperChildWriter is not a real test: it runs as the child process of
// TestDrain_ChildProcesses and writes to the inherited descriptor.
func TestHelperChildWriter(t *testing.T) {
	id := os.Getenv("RESULTCHAN_HELPER")
	if id == "" {
		t.Skip("helper process only")
	}
	w := OpenWriter(os.NewFile(ChildFD, "resultchan"))
	for i := range 20 {
		if err := w.WriteLine(fmt.Sprintf("child %s line %d", id, i)); err != nil {
			os.Exit(2)
		}
	}
	w.Close()
	os.Exit(0)
}

func TestDrain_ChildProcesses(t *testing.T) {
	ch, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var cmds []*exec.Cmd
	for i := range 4 {
		cmd := exec.Command(os.Args[0], "-test.run=^TestHelperChildWriter$")
		cmd.Env = append(os.Environ(), fmt.Sprintf("RESULTCHAN_HELPER=%d", i))
		cmd.ExtraFiles = []*os.File{ch.File()}
		if err := cmd.Start(); err != nil {
			t.Fatalf("start child: %v", err)
		}
		cmds = append(cmds, cmd)
	}

	lines := map[string]bool{}
	if err := ch.Drain(func(m string) { lines[m] = true }); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	for _, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			t.Errorf("child: %v", err)
		}
	}
	if len(lines) != 80 {
		t.Errorf("got %d distinct lines, want 80", len(lines))
	}
	for i := range 4 {
		if !lines[fmt.Sprintf("child %d line 19", i)] {
			t.Errorf("missing last line of child %d", i)
		}
	}
}
