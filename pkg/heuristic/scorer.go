// Package heuristic scores a raw feature vector against hand-curated
// per-class empirical ranges. It encodes the domain knowledge the tree
// ensemble cannot express, very large pixel counts with one or two
// regions mean "no focal tumor", and stays robust on vectors far from
// the ensemble's training distribution.
package heuristic

import (
	"fmt"

	"brainradiomics/internal/models"
)

// RawScores counts, per class, how many features fall inside that
// class's empirical interval. One point per hit.
func RawScores(f models.FeatureVector) [models.NumClasses]int {
	x := f.Slice()
	var scores [models.NumClasses]int
	for c := range classRanges {
		for i, iv := range classRanges[c].intervals() {
			if iv.Contains(x[i]) {
				scores[c]++
			}
		}
	}
	return scores
}

// Score converts the raw interval hits into a probability vector. When
// no feature matches any class (total score zero) the scorer falls
// back to the uniform distribution; that is a documented tie-break, not
// an error.
func Score(f models.FeatureVector) models.ClassProbabilities {
	scores := RawScores(f)
	total := 0
	for _, s := range scores {
		total += s
	}

	var p models.ClassProbabilities
	if total == 0 {
		for i := range p {
			p[i] = 1.0 / models.NumClasses
		}
		return p
	}
	for i, s := range scores {
		p[i] = float64(s) / float64(total)
	}
	return p
}

// Contribution describes how one feature value sits relative to the
// predicted class's empirical range.
type Contribution struct {
	Feature string
	Value   float64

	// Score is 1 inside the expected range and decays linearly with
	// the distance outside it, floored at 0.
	Score float64

	Expected    Interval
	Explanation string
}

// Contributions reports, feature by feature, how well a vector matches
// the predicted class. Used by the decision-support layer to explain a
// prediction.
func Contributions(f models.FeatureVector, predicted models.Class) [models.NumFeatures]Contribution {
	x := f.Slice()
	ivs := classRanges[predicted].intervals()

	var out [models.NumFeatures]Contribution
	for i := range out {
		iv := ivs[i]
		v := x[i]
		c := Contribution{Feature: FeatureNames[i], Value: v, Expected: iv}
		width := iv.Max - iv.Min
		switch {
		case iv.Contains(v):
			c.Score = 1
			c.Explanation = fmt.Sprintf("value %.1f matches the typical %s range", v, predicted)
		case v < iv.Min:
			if width > 0 {
				c.Score = clamp01(1 - (iv.Min-v)/width)
			}
			c.Explanation = fmt.Sprintf("value %.1f is below the typical %s range", v, predicted)
		default:
			if width > 0 {
				c.Score = clamp01(1 - (v-iv.Max)/width)
			}
			c.Explanation = fmt.Sprintf("value %.1f is above the typical %s range", v, predicted)
		}
		out[i] = c
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
