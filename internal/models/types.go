// Package models defines the shared data types passed between the stages
// of the radiomic classification pipeline. Each stage constructs and
// returns fresh values; nothing here is mutated after creation.
package models

// Class identifies one of the four diagnostic categories. The numeric
// order (alphabetical) is the canonical index order for probability
// vectors and matches the layout of the trained model artifacts.
type Class int

const (
	ClassGlioma Class = iota
	ClassMeningioma
	ClassNotumor
	ClassPituitary

	// NumClasses is the size of every probability vector in the pipeline.
	NumClasses = 4
)

// TieBreakOrder is the preference order used when probabilities are
// exactly equal: the clinically conservative choice escalates rather
// than reassures, so tumor classes outrank "no tumor".
var TieBreakOrder = [NumClasses]Class{ClassGlioma, ClassMeningioma, ClassPituitary, ClassNotumor}

// Classes lists all categories in canonical index order.
var Classes = [NumClasses]Class{ClassGlioma, ClassMeningioma, ClassNotumor, ClassPituitary}

func (c Class) String() string {
	switch c {
	case ClassGlioma:
		return "glioma"
	case ClassMeningioma:
		return "meningioma"
	case ClassNotumor:
		return "notumor"
	case ClassPituitary:
		return "pituitary"
	}
	return "unknown"
}

// RiskLevel is the coarse clinical-urgency bucket derived from the
// predicted class.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// riskByClass is the fixed class-to-risk lookup.
var riskByClass = [NumClasses]RiskLevel{
	ClassGlioma:     RiskHigh,
	ClassMeningioma: RiskMedium,
	ClassNotumor:    RiskLow,
	ClassPituitary:  RiskMedium,
}

// RiskFor returns the risk tier for a diagnostic category.
func RiskFor(c Class) RiskLevel {
	if c < 0 || c >= NumClasses {
		return RiskLow
	}
	return riskByClass[c]
}

// ClassProbabilities maps each category (by canonical index) to a
// probability. A valid vector has non-negative entries summing to 1
// within floating tolerance.
type ClassProbabilities [NumClasses]float64

// Sum returns the total probability mass.
func (p ClassProbabilities) Sum() float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s
}

// Normalized returns a copy rescaled to sum exactly to 1. A zero vector
// normalizes to the uniform distribution.
func (p ClassProbabilities) Normalized() ClassProbabilities {
	s := p.Sum()
	if s == 0 {
		for i := range p {
			p[i] = 1.0 / NumClasses
		}
		return p
	}
	for i := range p {
		p[i] /= s
	}
	return p
}

// ArgMax returns the most probable class, resolving exact ties by
// TieBreakOrder.
func (p ClassProbabilities) ArgMax() Class {
	best := TieBreakOrder[0]
	for _, c := range TieBreakOrder[1:] {
		if p[c] > p[best] {
			best = c
		}
	}
	return best
}

// NormalizedImage is a single-channel image resampled to a fixed square
// resolution with zero mean and unit variance. Pixels are stored in
// row-major order.
type NormalizedImage struct {
	Pix    []float64
	Width  int
	Height int

	// Degenerate marks a flat source image (σ≈0). The pixel data is
	// all zero in that case and downstream stages still run.
	Degenerate bool
}

// At returns the pixel value at (x, y).
func (im *NormalizedImage) At(x, y int) float64 {
	return im.Pix[y*im.Width+x]
}

// Rescaled returns the image linearly rescaled to the 0..255 range,
// the intensity unit the segmentation thresholds and the empirical
// feature ranges are calibrated against. A flat image rescales to all
// zeros.
func (im *NormalizedImage) Rescaled() []uint8 {
	out := make([]uint8, len(im.Pix))
	if len(im.Pix) == 0 {
		return out
	}
	lo, hi := im.Pix[0], im.Pix[0]
	for _, v := range im.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return out
	}
	scale := 255.0 / (hi - lo)
	for i, v := range im.Pix {
		out[i] = uint8((v-lo)*scale + 0.5)
	}
	return out
}

// TumorMask is a binary grid at the analysis resolution marking
// candidate tumor pixels, together with its 8-connected component
// count.
type TumorMask struct {
	Bits   []bool
	Width  int
	Height int

	// RegionCount is the number of 8-connected components of the mask.
	// Zero iff the mask has no true pixels.
	RegionCount int

	// BrainFallback is set when no sufficiently large bright region was
	// found and the mask fell back to the whole brain mask, the typical
	// signature of a scan without a focal tumor.
	BrainFallback bool
}

// Count returns the number of true pixels.
func (m *TumorMask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// FeatureVector holds the six radiomic measurements derived from a
// (NormalizedImage, TumorMask) pair. Invariants: MajorAxisLength >=
// MinorAxisLength >= 0, VoxelCount >= 0, Elongation in [0, 1].
type FeatureVector struct {
	// MeanIntensity is the mean of the 0..255 rescaled image over the
	// whole frame, a global tissue-brightness measure.
	MeanIntensity float64

	// VoxelCount is the number of mask pixels.
	VoxelCount float64

	// VolumeNum is the mask's 8-connected region count.
	VolumeNum float64

	// Elongation is MinorAxisLength / MajorAxisLength, 0 for a
	// degenerate point-like or empty mask.
	Elongation float64

	// MajorAxisLength and MinorAxisLength are the principal axis
	// lengths of the mask pixel distribution, 4·√λ of the coordinate
	// covariance eigenvalues.
	MajorAxisLength float64
	MinorAxisLength float64
}

// Slice returns the features in the fixed order the feature scaler was
// fitted with: mean, voxel count, region count, elongation, major axis,
// minor axis.
func (f FeatureVector) Slice() [6]float64 {
	return [6]float64{
		f.MeanIntensity,
		f.VoxelCount,
		f.VolumeNum,
		f.Elongation,
		f.MajorAxisLength,
		f.MinorAxisLength,
	}
}

// NumFeatures is the dimensionality of a FeatureVector.
const NumFeatures = 6

// PredictionResult is the final, immutable output of one classification
// request. Downstream consumers treat it as read-only.
type PredictionResult struct {
	// Label is the argmax of Probabilities.
	Label Class

	// Confidence is the probability of Label.
	Confidence float64

	// Risk is the fixed per-class urgency tier.
	Risk RiskLevel

	// Probabilities is the full blended distribution for display.
	Probabilities ClassProbabilities

	// Warnings carries non-fatal degenerate-input notes (flat image,
	// empty segmentation) for the caller to surface.
	Warnings []string
}

// PatientInfo is optional context supplied by the caller. The
// classification core does not consume it; only the decision-support
// layer does.
type PatientInfo struct {
	Age      int
	Sex      string
	Symptoms []string
}
