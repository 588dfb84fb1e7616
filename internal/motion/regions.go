package motion

import "image"

// FindRegions extracts the outermost connected components of changed
// pixels, in raster order of their first pixel.
//
// Changed pixels connect through all 8 neighbours and unchanged pixels
// through 4, so each component has a well-defined outside. A component that
// sits inside a hole of another component is nested and is not reported.
// The centroid is the mean coordinate of the component's pixels.
func FindRegions(m *Mask) []Region {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 || m.Count == 0 {
		return nil
	}

	outside := markOutside(m)
	visited := make([]bool, len(m.Changed))
	stack := make([]int, 0, 64)

	var regions []Region
	for start, changed := range m.Changed {
		if !changed || visited[start] {
			continue
		}
		sx, sy := start%w, start/w
		// The first pixel of a component in raster order always has its
		// left neighbour in the background that encloses the component.
		nested := sx > 0 && !outside[start-1]

		var sumX, sumY int64
		count := 0
		minX, minY, maxX, maxY := sx, sy, sx, sy

		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w

			sumX += int64(x)
			sumY += int64(y)
			count++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					q := ny*w + nx
					if m.Changed[q] && !visited[q] {
						visited[q] = true
						stack = append(stack, q)
					}
				}
			}
		}

		if nested || count == 0 {
			continue
		}
		cx := float64(sumX) / float64(count)
		cy := float64(sumY) / float64(count)
		regions = append(regions, Region{
			Bounds: image.Rect(minX, minY, maxX+1, maxY+1),
			X:      int(cx),
			Y:      int(cy),
			CX:     cx,
			CY:     cy,
			Pixels: count,
		})
	}
	return regions
}

// markOutside flags every unchanged pixel 4-connected to the image border.
// Unchanged pixels left unflagged are holes enclosed by some component.
func markOutside(m *Mask) []bool {
	w, h := m.Width, m.Height
	outside := make([]bool, len(m.Changed))
	stack := make([]int, 0, 2*(w+h))

	push := func(p int) {
		if !m.Changed[p] && !outside[p] {
			outside[p] = true
			stack = append(stack, p)
		}
	}
	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p%w, p/w
		if x > 0 {
			push(p - 1)
		}
		if x < w-1 {
			push(p + 1)
		}
		if y > 0 {
			push(p - w)
		}
		if y < h-1 {
			push(p + w)
		}
	}
	return outside
}
