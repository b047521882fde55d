package heuristic

import (
	"brainradiomics/internal/models"
)

// Interval is an inclusive empirical min-max range for one feature.
type Interval struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Min && v <= iv.Max
}

// ClassRanges holds the observed training ranges of each feature for
// one diagnostic category.
type ClassRanges struct {
	VoxelCount    Interval
	VolumeNum     Interval
	MajorAxis     Interval
	MinorAxis     Interval
	Elongation    Interval
	MeanIntensity Interval
}

// classRanges encodes the training-set range analysis, indexed by
// canonical class order. Updating calibration is a data change here,
// not a code change.
//
// Distinguishing structure: pituitary lesions are larger and longer
// along both axes, meningiomas smaller and rounder, gliomas sit in
// between. Scans without a focal tumor segment to the whole brain
// mask, so they show a very large pixel count with only one or two
// regions; their lower bounds are relaxed to zero so the degenerate
// empty-mask vector also lands in the no-tumor ranges.
var classRanges = [models.NumClasses]ClassRanges{
	models.ClassGlioma: {
		VoxelCount:    Interval{3400, 5100},
		VolumeNum:     Interval{5, 29},
		MajorAxis:     Interval{240, 277},
		MinorAxis:     Interval{200, 228},
		Elongation:    Interval{0.76, 0.92},
		MeanIntensity: Interval{25, 50},
	},
	models.ClassMeningioma: {
		VoxelCount:    Interval{2800, 5200},
		VolumeNum:     Interval{4, 20},
		MajorAxis:     Interval{200, 260},
		MinorAxis:     Interval{150, 220},
		Elongation:    Interval{0.50, 0.85},
		MeanIntensity: Interval{29, 65},
	},
	models.ClassNotumor: {
		VoxelCount:    Interval{10000, 40000},
		VolumeNum:     Interval{0, 2},
		MajorAxis:     Interval{0, 260},
		MinorAxis:     Interval{0, 225},
		Elongation:    Interval{0, 0.97},
		MeanIntensity: Interval{0, 95},
	},
	models.ClassPituitary: {
		VoxelCount:    Interval{4400, 6500},
		VolumeNum:     Interval{9, 30},
		MajorAxis:     Interval{255, 335},
		MinorAxis:     Interval{220, 280},
		Elongation:    Interval{0.80, 0.96},
		MeanIntensity: Interval{30, 65},
	},
}

// Ranges returns the empirical intervals for a class.
func Ranges(c models.Class) ClassRanges {
	return classRanges[c]
}

// intervals lists a class's ranges in feature-vector order, paired with
// display names for contribution reports.
func (r ClassRanges) intervals() [models.NumFeatures]Interval {
	return [models.NumFeatures]Interval{
		r.MeanIntensity,
		r.VoxelCount,
		r.VolumeNum,
		r.Elongation,
		r.MajorAxis,
		r.MinorAxis,
	}
}

// FeatureNames are the human-readable names of the six features, in
// feature-vector order.
var FeatureNames = [models.NumFeatures]string{
	"Image Brightness",
	"Tumor Size (pixels)",
	"Number of Regions",
	"Shape Elongation",
	"Longest Axis Length",
	"Shortest Axis Length",
}
