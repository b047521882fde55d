package segmentation

// Binary morphology and component analysis for masks stored as flat
// row-major bool grids. Out-of-bounds pixels are treated as background.

// diskOffsets returns the pixel offsets of a disk structuring element
// with the given radius.
func diskOffsets(radius int) [][2]int {
	var offs [][2]int
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				offs = append(offs, [2]int{dx, dy})
			}
		}
	}
	return offs
}

func dilate(mask []bool, width, height int, offs [][2]int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y*width+x] {
				continue
			}
			for _, o := range offs {
				nx, ny := x+o[0], y+o[1]
				if nx >= 0 && nx < width && ny >= 0 && ny < height {
					out[ny*width+nx] = true
				}
			}
		}
	}
	return out
}

func erode(mask []bool, width, height int, offs [][2]int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			keep := true
			for _, o := range offs {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height || !mask[ny*width+nx] {
					keep = false
					break
				}
			}
			out[y*width+x] = keep
		}
	}
	return out
}

// binaryClosing fills gaps smaller than the structuring element.
func binaryClosing(mask []bool, width, height, radius int) []bool {
	offs := diskOffsets(radius)
	return erode(dilate(mask, width, height, offs), width, height, offs)
}

// binaryOpening removes protrusions smaller than the structuring element.
func binaryOpening(mask []bool, width, height, radius int) []bool {
	offs := diskOffsets(radius)
	return dilate(erode(mask, width, height, offs), width, height, offs)
}

// neighbors8 is the 8-connected neighborhood.
var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// labelComponents assigns a positive label to every 8-connected
// component and returns the label grid plus per-label pixel counts
// (index 0 unused).
func labelComponents(mask []bool, width, height int) ([]int, []int) {
	labels := make([]int, len(mask))
	sizes := []int{0}
	next := 0

	var stack []int
	for i := range mask {
		if !mask[i] || labels[i] != 0 {
			continue
		}
		next++
		sizes = append(sizes, 0)
		labels[i] = next
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sizes[next]++
			px, py := p%width, p/width
			for _, n := range neighbors8 {
				nx, ny := px+n[0], py+n[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				q := ny*width + nx
				if mask[q] && labels[q] == 0 {
					labels[q] = next
					stack = append(stack, q)
				}
			}
		}
	}
	return labels, sizes
}

// countComponents returns the number of 8-connected components.
func countComponents(mask []bool, width, height int) int {
	_, sizes := labelComponents(mask, width, height)
	return len(sizes) - 1
}

// removeSmallObjects clears every 8-connected component with fewer than
// minSize pixels.
func removeSmallObjects(mask []bool, width, height, minSize int) []bool {
	labels, sizes := labelComponents(mask, width, height)
	out := make([]bool, len(mask))
	for i, l := range labels {
		if l != 0 && sizes[l] >= minSize {
			out[i] = true
		}
	}
	return out
}
