// Package segmentation extracts a binary tumor-candidate mask from a
// normalized brain MRI slice. The approach mirrors classic
// marker-controlled watershed segmentation: an automatic Otsu threshold
// isolates brain tissue from background, intensity percentiles inside
// the brain seed bright (candidate tumor) and dark (background)
// markers, and a flood over the gradient landscape partitions the brain
// area between them.
package segmentation

import (
	"sort"

	"brainradiomics/internal/models"
)

// Params controls the segmentation thresholds. The defaults are the
// calibrated values the downstream empirical feature ranges were
// derived with.
type Params struct {
	// BrightPercentile and DarkPercentile select the watershed seed
	// markers from the intensity distribution inside the brain mask.
	BrightPercentile float64
	DarkPercentile   float64

	// MinBrainObject is the minimum pixel count for a connected region
	// to survive in the brain mask.
	MinBrainObject int

	// MinTumorObject is the minimum pixel count for a connected region
	// to survive in the candidate tumor mask.
	MinTumorObject int

	// FallbackMinPixels is the smallest acceptable bright-region mask.
	// Below it the segmenter falls back to the whole brain mask, the
	// expected signature of a scan without a focal bright lesion.
	FallbackMinPixels int
}

// DefaultParams returns the calibrated segmentation parameters.
func DefaultParams() Params {
	return Params{
		BrightPercentile:  85,
		DarkPercentile:    30,
		MinBrainObject:    500,
		MinTumorObject:    20,
		FallbackMinPixels: 100,
	}
}

// Segmenter produces tumor-candidate masks. It is stateless and safe
// for concurrent use.
type Segmenter struct {
	params Params
}

// NewSegmenter creates a segmenter with the given parameters.
func NewSegmenter(params Params) *Segmenter {
	return &Segmenter{params: params}
}

// Segment computes the tumor-candidate mask for a normalized image.
// The algorithm is deterministic: identical pixels always produce an
// identical mask. An empty mask (for a degenerate or all-background
// image) is a valid "no tumor" signal, not an error.
func (s *Segmenter) Segment(im *models.NormalizedImage) *models.TumorMask {
	width, height := im.Width, im.Height
	u8 := im.Rescaled()

	// Step 1: brain mask via Otsu threshold, cleaned up with a closing
	// pass and small-object removal.
	thr := otsuThreshold(u8)
	brain := make([]bool, len(u8))
	for i, v := range u8 {
		brain[i] = v > thr
	}
	brain = binaryClosing(brain, width, height, 3)
	brain = removeSmallObjects(brain, width, height, s.params.MinBrainObject)

	mask := &models.TumorMask{Width: width, Height: height}

	var brainVals []float64
	masked := make([]float64, len(u8))
	for i, inBrain := range brain {
		if inBrain {
			masked[i] = float64(u8[i])
			brainVals = append(brainVals, masked[i])
		}
	}
	if len(brainVals) == 0 {
		// Nothing resembling brain tissue; the empty mask stands.
		mask.Bits = make([]bool, len(u8))
		return mask
	}

	// Step 2: percentile markers inside the brain. Bright pixels seed
	// the candidate tumor region, dark pixels seed background.
	sort.Float64s(brainVals)
	pDark := percentile(brainVals, s.params.DarkPercentile)
	pBright := percentile(brainVals, s.params.BrightPercentile)

	markers := make([]int, len(u8))
	for i, v := range masked {
		switch {
		case v < pDark:
			markers[i] = markerBackground
		case v > pBright:
			markers[i] = markerForeground
		}
	}

	// Step 3: marker-controlled watershed over the gradient of the
	// brain-masked intensities.
	grad := gradientMagnitude(masked, width, height)
	labels := watershed(grad, markers, brain, width, height)

	fg := make([]bool, len(u8))
	for i, l := range labels {
		fg[i] = l == markerForeground
	}
	fg = binaryOpening(fg, width, height, 2)
	fg = binaryClosing(fg, width, height, 3)
	fg = removeSmallObjects(fg, width, height, s.params.MinTumorObject)

	// Step 4: a bright region this small is noise rather than a focal
	// lesion; fall back to the whole brain mask so the shape features
	// describe the brain itself.
	count := 0
	for _, b := range fg {
		if b {
			count++
		}
	}
	if count < s.params.FallbackMinPixels {
		copy(fg, brain)
		mask.BrainFallback = true
	}

	mask.Bits = fg
	mask.RegionCount = countComponents(fg, width, height)
	return mask
}

// otsuThreshold selects the threshold maximizing the between-class
// variance of the intensity histogram.
func otsuThreshold(pix []uint8) uint8 {
	var hist [256]int
	for _, v := range pix {
		hist[v]++
	}
	total := len(pix)

	var sum float64
	for v, c := range hist {
		sum += float64(v) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// percentile returns the q-th percentile of sorted values using linear
// interpolation between ranks.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
