// Package render draws frames and their motion regions in the terminal.
//
// With colors enabled each cell is a half block carrying two pixels in
// 24-bit color; regions are tinted with a per-region hue and centroids are
// marked. Without colors an ASCII luminance ramp is used. Pressing Enter
// on the key reader stops playback of the stream being drawn.
package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/backmassage/motionbench/internal/motion"
)

const (
	asciiRamp = " .:-=+*#%@"
	tintMix   = 0.55
	hueStep   = 67.0 // degrees between consecutive region hues
)

// Terminal is a motion.Renderer writing ANSI frames to out.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	cols   int
	color  bool
	stop   chan struct{}
	buf    bytes.Buffer
	frames int
}

// Options configure a Terminal.
type Options struct {
	Width int       // Columns available; values below 8 are raised to 8.
	Color bool      // Truecolor half blocks instead of the ASCII ramp.
	Keys  io.Reader // Optional; each line read requests a stop.
}

// New returns a Terminal writing to out. When opts.Keys is set a goroutine
// reads it until EOF.
func New(out io.Writer, opts Options) *Terminal {
	t := &Terminal{
		out:   out,
		cols:  max(opts.Width, 8),
		color: opts.Color,
		stop:  make(chan struct{}, 1),
	}
	if opts.Keys != nil {
		go t.watchKeys(opts.Keys)
	}
	return t
}

func (t *Terminal) watchKeys(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		t.RequestStop()
	}
}

// RequestStop makes the next Draw return motion.ErrStopPlayback. Requests
// do not accumulate beyond one.
func (t *Terminal) RequestStop() {
	select {
	case t.stop <- struct{}{}:
	default:
	}
}

// Frames returns how many frames were drawn.
func (t *Terminal) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Draw implements motion.Renderer.
func (t *Terminal) Draw(f motion.Frame, regions []motion.Region) error {
	select {
	case <-t.stop:
		return motion.ErrStopPlayback
	default:
	}
	if !f.Valid() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Reset()
	t.buf.WriteString("\x1b[H")
	if t.color {
		t.drawColor(f, regions)
	} else {
		t.drawASCII(f, regions)
	}
	t.frames++
	_, err := t.out.Write(t.buf.Bytes())
	return err
}

// grid maps terminal cells onto frame pixels. Each text row covers two
// pixel rows so cells stay roughly square.
func (t *Terminal) grid(f motion.Frame) (cols, rows int) {
	cols = min(t.cols, f.Width)
	rows = max(1, (f.Height*cols/f.Width+1)/2)
	return cols, rows
}

func (t *Terminal) drawColor(f motion.Frame, regions []motion.Region) {
	cols, rows := t.grid(f)
	marks := centroidCells(f, regions, cols, rows*2)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			top := cellColor(f, regions, marks, tx, ty*2, cols, rows*2)
			bot := cellColor(f, regions, marks, tx, ty*2+1, cols, rows*2)
			tr, tg, tb := top.Clamped().RGB255()
			br, bg, bb := bot.Clamped().RGB255()
			fmt.Fprintf(&t.buf, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		t.buf.WriteString("\x1b[0m\n")
	}
}

func (t *Terminal) drawASCII(f motion.Frame, regions []motion.Region) {
	cols, rows := t.grid(f)
	marks := centroidCells(f, regions, cols, rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			x, y := sample(f, tx, ty, cols, rows)
			switch {
			case hasMark(marks, tx, ty):
				t.buf.WriteByte('+')
			case regionAt(regions, x, y) >= 0:
				t.buf.WriteByte('O')
			default:
				v := int(f.At(x, y))
				t.buf.WriteByte(asciiRamp[v*(len(asciiRamp)-1)/255])
			}
		}
		t.buf.WriteByte('\n')
	}
}

// sample returns the pixel that cell (cx, cy) of a cols×rows grid covers.
func sample(f motion.Frame, cx, cy, cols, rows int) (x, y int) {
	x = min(cx*f.Width/cols, f.Width-1)
	y = min(cy*f.Height/rows, f.Height-1)
	return x, y
}

func cellColor(f motion.Frame, regions []motion.Region, marks map[[2]int]int, cx, cy, cols, rows int) colorful.Color {
	if i, ok := marks[[2]int{cx, cy}]; ok {
		return RegionColor(i)
	}
	x, y := sample(f, cx, cy, cols, rows)
	v := float64(f.At(x, y)) / 255
	gray := colorful.Color{R: v, G: v, B: v}
	i := regionAt(regions, x, y)
	if i < 0 {
		return gray
	}
	return gray.BlendLab(RegionColor(i), tintMix)
}

// RegionColor returns the highlight color of the i-th region of a frame.
func RegionColor(i int) colorful.Color {
	h := float64(i) * hueStep
	for h >= 360 {
		h -= 360
	}
	return colorful.Hcl(h, 0.8, 0.65)
}

func regionAt(regions []motion.Region, x, y int) int {
	for i, r := range regions {
		if x >= r.Bounds.Min.X && x < r.Bounds.Max.X && y >= r.Bounds.Min.Y && y < r.Bounds.Max.Y {
			return i
		}
	}
	return -1
}

// centroidCells maps the grid cell holding each region's centroid to the
// region index.
func centroidCells(f motion.Frame, regions []motion.Region, cols, rows int) map[[2]int]int {
	marks := make(map[[2]int]int, len(regions))
	for i, r := range regions {
		cx := min(r.X*cols/f.Width, cols-1)
		cy := min(r.Y*rows/f.Height, rows-1)
		marks[[2]int{cx, cy}] = i
	}
	return marks
}

func hasMark(marks map[[2]int]int, cx, cy int) bool {
	_, ok := marks[[2]int{cx, cy}]
	return ok
}
