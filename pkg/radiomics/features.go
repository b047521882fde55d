// Package radiomics reduces a (normalized image, tumor mask) pair to
// the six quantitative shape and intensity measurements the scoring
// stages consume.
package radiomics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"brainradiomics/internal/models"
)

// axisScale converts a covariance eigenvalue to an axis length in the
// unit the empirical class ranges were calibrated with: for a uniform
// region the principal axis length 4·√λ equals the region's extent
// along that axis.
const axisScale = 4.0

// Extract computes the feature vector for a segmented slice. An empty
// mask yields well-defined zero shape features, the expected signature
// of "no tumor"; it is never an error.
func Extract(im *models.NormalizedImage, mask *models.TumorMask) models.FeatureVector {
	fv := models.FeatureVector{
		VoxelCount: float64(mask.Count()),
		VolumeNum:  float64(mask.RegionCount),
	}

	// Global tissue brightness over the whole frame, in the 0..255
	// unit shared with the segmentation thresholds.
	u8 := im.Rescaled()
	intens := make([]float64, len(u8))
	for i, v := range u8 {
		intens[i] = float64(v)
	}
	fv.MeanIntensity = stat.Mean(intens, nil)

	major, minor := principalAxes(mask)
	fv.MajorAxisLength = major
	fv.MinorAxisLength = minor
	if major > 0 {
		fv.Elongation = math.Min(1, minor/major)
	}
	return fv
}

// principalAxes treats the mask pixels as a point cloud and derives
// axis lengths from the eigenvalues of its coordinate covariance.
func principalAxes(mask *models.TumorMask) (major, minor float64) {
	var xs, ys []float64
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.Bits[y*mask.Width+x] {
				xs = append(xs, float64(x))
				ys = append(ys, float64(y))
			}
		}
	}
	n := float64(len(xs))
	if n < 2 {
		// Empty or point-like mask: degenerate shape.
		return 0, 0
	}

	mx := stat.Mean(xs, nil)
	my := stat.Mean(ys, nil)
	var cxx, cyy, cxy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cxx += dx * dx
		cyy += dy * dy
		cxy += dx * dy
	}
	cxx /= n
	cyy /= n
	cxy /= n

	cov := mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy})
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return 0, 0
	}
	vals := eig.Values(nil) // ascending
	l1, l2 := vals[1], vals[0]
	if l1 < 0 {
		l1 = 0
	}
	if l2 < 0 {
		l2 = 0
	}
	return axisScale * math.Sqrt(l1), axisScale * math.Sqrt(l2)
}
