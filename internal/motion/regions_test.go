package motion

import (
	"image"
	"testing"
)

// maskFrom builds a mask from rows of '#' (changed) and '.' (unchanged).
func maskFrom(rows ...string) *Mask {
	m := &Mask{Width: len(rows[0]), Height: len(rows)}
	m.Changed = make([]bool, m.Width*m.Height)
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				m.Changed[y*m.Width+x] = true
				m.Count++
			}
		}
	}
	return m
}

func TestFindRegions(t *testing.T) {
	tests := []struct {
		name string
		mask *Mask
		want []Region
	}{
		{
			name: "empty",
			mask: maskFrom(
				"....",
				"....",
			),
			want: nil,
		},
		{
			name: "single square",
			mask: maskFrom(
				"......",
				".###..",
				".###..",
				".###..",
				"......",
			),
			want: []Region{{Bounds: image.Rect(1, 1, 4, 4), X: 2, Y: 2, CX: 2, CY: 2, Pixels: 9}},
		},
		{
			name: "diagonal pixels join",
			mask: maskFrom(
				"....",
				".#..",
				"..#.",
				"....",
			),
			want: []Region{{Bounds: image.Rect(1, 1, 3, 3), X: 1, Y: 1, CX: 1.5, CY: 1.5, Pixels: 2}},
		},
		{
			name: "two regions in raster order",
			mask: maskFrom(
				"......#",
				"##....#",
				"##.....",
			),
			want: []Region{
				{Bounds: image.Rect(6, 0, 7, 2), X: 6, Y: 0, CX: 6, CY: 0.5, Pixels: 2},
				{Bounds: image.Rect(0, 1, 2, 3), X: 0, Y: 1, CX: 0.5, CY: 1.5, Pixels: 4},
			},
		},
		{
			name: "nested region ignored",
			mask: maskFrom(
				".........",
				".#######.",
				".#.....#.",
				".#.....#.",
				".#..#..#.",
				".#.....#.",
				".#.....#.",
				".#######.",
				".........",
			),
			want: []Region{{Bounds: image.Rect(1, 1, 8, 8), X: 4, Y: 4, CX: 4, CY: 4, Pixels: 24}},
		},
		{
			name: "open shape keeps inner region",
			mask: maskFrom(
				".......",
				".#...#.",
				".#...#.",
				".#.#.#.",
				".#...#.",
				".#####.",
				".......",
			),
			want: []Region{
				{Bounds: image.Rect(1, 1, 6, 6), X: 3, Y: 3, CX: 3, CY: 3.4615384615384617, Pixels: 13},
				{Bounds: image.Rect(3, 3, 4, 4), X: 3, Y: 3, CX: 3, CY: 3, Pixels: 1},
			},
		},
		{
			name: "whole frame",
			mask: maskFrom(
				"##",
				"##",
			),
			want: []Region{{Bounds: image.Rect(0, 0, 2, 2), X: 0, Y: 0, CX: 0.5, CY: 0.5, Pixels: 4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindRegions(tt.mask)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d regions %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Bounds != w.Bounds || g.X != w.X || g.Y != w.Y || g.Pixels != w.Pixels {
					t.Errorf("region %d = %+v, want %+v", i, g, w)
				}
				if diff := g.CX - w.CX; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("region %d CX = %v, want %v", i, g.CX, w.CX)
				}
				if diff := g.CY - w.CY; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("region %d CY = %v, want %v", i, g.CY, w.CY)
				}
			}
		})
	}
}

func TestDiff_Threshold(t *testing.T) {
	prev := Frame{Width: 4, Height: 1, Pix: []uint8{100, 100, 100, 100}}
	cur := Frame{Width: 4, Height: 1, Pix: []uint8{125, 126, 75, 74}}

	m, err := Diff(prev, cur, 25)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := []bool{false, true, false, true}
	for i, w := range want {
		if m.Changed[i] != w {
			t.Errorf("pixel %d changed = %v, want %v", i, m.Changed[i], w)
		}
	}
	if m.Count != 2 {
		t.Errorf("Count = %d, want 2", m.Count)
	}
}

func TestDiff_SizeMismatch(t *testing.T) {
	if _, err := Diff(NewFrame(2, 2), NewFrame(3, 2), 25); err != ErrFrameSize {
		t.Errorf("err = %v, want ErrFrameSize", err)
	}
}
