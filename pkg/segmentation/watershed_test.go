package segmentation

import "testing"

func TestGradientMagnitude(t *testing.T) {
	t.Run("flat field has zero gradient", func(t *testing.T) {
		pix := make([]float64, 8*8)
		for i := range pix {
			pix[i] = 5
		}
		for i, g := range gradientMagnitude(pix, 8, 8) {
			if g != 0 {
				t.Fatalf("gradient at %d = %v, want 0", i, g)
			}
		}
	})

	t.Run("step edge peaks at the boundary", func(t *testing.T) {
		const w, h = 8, 8
		pix := make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 4; x < w; x++ {
				pix[y*w+x] = 10
			}
		}

		grad := gradientMagnitude(pix, w, h)
		if grad[3*w+1] != 0 {
			t.Errorf("gradient far left of the edge = %v, want 0", grad[3*w+1])
		}
		if grad[3*w+6] != 0 {
			t.Errorf("gradient far right of the edge = %v, want 0", grad[3*w+6])
		}
		if grad[3*w+3] == 0 || grad[3*w+4] == 0 {
			t.Error("gradient at the step edge should be nonzero")
		}
	})
}

func TestWatershedPartition(t *testing.T) {
	// Two seeds separated by a gradient ridge down the middle column.
	const w, h = 9, 5
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 5; x < w; x++ {
			pix[y*w+x] = 10
		}
	}
	grad := gradientMagnitude(pix, w, h)

	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	markers := make([]int, w*h)
	markers[2*w+1] = markerBackground
	markers[2*w+7] = markerForeground

	labels := watershed(grad, markers, mask, w, h)

	for i, l := range labels {
		if l == markerNone {
			t.Fatalf("pixel %d left unlabeled inside the mask", i)
		}
	}
	if labels[0*w+0] != markerBackground || labels[4*w+1] != markerBackground {
		t.Error("left plateau not claimed by the background seed")
	}
	if labels[0*w+8] != markerForeground || labels[4*w+7] != markerForeground {
		t.Error("right plateau not claimed by the foreground seed")
	}
}

func TestWatershedRespectsMask(t *testing.T) {
	const w, h = 6, 4
	grad := make([]float64, w*h)

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < 3; x++ {
			mask[y*w+x] = true
		}
	}
	markers := make([]int, w*h)
	markers[1*w+1] = markerForeground

	labels := watershed(grad, markers, mask, w, h)

	for y := 0; y < h; y++ {
		for x := 3; x < w; x++ {
			if labels[y*w+x] != markerNone {
				t.Fatalf("pixel (%d,%d) outside the mask was labeled", x, y)
			}
		}
	}
	if labels[0*w+2] != markerForeground {
		t.Error("masked pixel reachable from the seed not labeled")
	}
}

func TestWatershedDeterminism(t *testing.T) {
	const w, h = 16, 16
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = float64((x*7 + y*3) % 11)
		}
	}
	grad := gradientMagnitude(pix, w, h)

	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	markers := make([]int, w*h)
	markers[0] = markerBackground
	markers[w*h-1] = markerForeground

	a := watershed(grad, markers, mask, w, h)
	b := watershed(grad, markers, mask, w, h)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("label %d differs between identical runs", i)
		}
	}
}
