package motion

// Mask is a binary change map: Changed[i] is true where the pixel moved.
type Mask struct {
	Width   int
	Height  int
	Changed []bool
	Count   int
}

// Diff computes |prev - cur| per pixel and marks a pixel changed when the
// difference exceeds threshold. Both frames must have the same geometry.
func Diff(prev, cur Frame, threshold int) (*Mask, error) {
	if prev.Width != cur.Width || prev.Height != cur.Height || len(prev.Pix) != len(cur.Pix) {
		return nil, ErrFrameSize
	}
	m := &Mask{
		Width:   cur.Width,
		Height:  cur.Height,
		Changed: make([]bool, len(cur.Pix)),
	}
	for i, c := range cur.Pix {
		d := int(prev.Pix[i]) - int(c)
		if d < 0 {
			d = -d
		}
		if d > threshold {
			m.Changed[i] = true
			m.Count++
		}
	}
	return m, nil
}
