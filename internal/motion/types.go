package motion

import "image"

// Stream is one independent input to analyze. ID is the path relative to
// the input directory and is what appears in every message; Path is what
// the FrameSource opens.
type Stream struct {
	ID   string
	Path string
}

// Frame is a row-major 8-bit grayscale raster.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed w×h frame.
func NewFrame(w, h int) Frame {
	return Frame{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the gray value at (x, y).
func (f Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// Set stores v at (x, y).
func (f Frame) Set(x, y int, v uint8) {
	f.Pix[y*f.Width+x] = v
}

// Valid reports whether Pix holds exactly Width×Height samples.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height
}

// Region is one connected group of changed pixels.
type Region struct {
	Bounds image.Rectangle // Max is exclusive.
	X, Y   int             // Centroid truncated toward zero; the reported position.
	CX, CY float64         // Exact centroid.
	Pixels int             // Pixel mass.
}

// Result is the detection outcome for one frame of one stream. Index is the
// zero-based frame index within the stream; the first result has Index 1.
type Result struct {
	StreamID      string
	Index         int
	Regions       []Region
	ChangedPixels int
}

// HasMotion reports whether any pixel changed beyond the threshold.
func (r Result) HasMotion() bool { return r.ChangedPixels > 0 }
