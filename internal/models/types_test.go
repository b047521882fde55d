package models

import (
	"math"
	"testing"
)

// TestArgMaxTieBreak verifies the documented preference order on exactly
// equal probabilities: tumor classes outrank "no tumor".
func TestArgMaxTieBreak(t *testing.T) {
	cases := []struct {
		name  string
		probs ClassProbabilities
		want  Class
	}{
		{"uniform", ClassProbabilities{0.25, 0.25, 0.25, 0.25}, ClassGlioma},
		{"glioma vs meningioma", ClassProbabilities{0.4, 0.4, 0.1, 0.1}, ClassGlioma},
		{"pituitary vs notumor", ClassProbabilities{0, 0, 0.5, 0.5}, ClassPituitary},
		{"meningioma vs pituitary", ClassProbabilities{0, 0.5, 0, 0.5}, ClassMeningioma},
		{"clear winner", ClassProbabilities{0.1, 0.2, 0.6, 0.1}, ClassNotumor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.probs.ArgMax(); got != tc.want {
				t.Errorf("ArgMax() = %s, want %s", got, tc.want)
			}
		})
	}
}

// TestNormalized verifies renormalization, including the zero-vector
// fallback to the uniform distribution.
func TestNormalized(t *testing.T) {
	p := ClassProbabilities{2, 1, 1, 0}.Normalized()
	if math.Abs(p.Sum()-1) > 1e-12 {
		t.Errorf("normalized sum = %v, want 1", p.Sum())
	}
	if math.Abs(p[ClassGlioma]-0.5) > 1e-12 {
		t.Errorf("glioma probability = %v, want 0.5", p[ClassGlioma])
	}

	zero := ClassProbabilities{}.Normalized()
	for c, v := range zero {
		if math.Abs(v-0.25) > 1e-12 {
			t.Errorf("zero vector normalized to %v for %s, want 0.25", v, Class(c))
		}
	}
}

// TestRiskFor verifies the fixed class-to-risk lookup.
func TestRiskFor(t *testing.T) {
	cases := []struct {
		class Class
		want  RiskLevel
	}{
		{ClassGlioma, RiskHigh},
		{ClassMeningioma, RiskMedium},
		{ClassPituitary, RiskMedium},
		{ClassNotumor, RiskLow},
	}
	for _, tc := range cases {
		if got := RiskFor(tc.class); got != tc.want {
			t.Errorf("RiskFor(%s) = %s, want %s", tc.class, got, tc.want)
		}
	}
}

// TestRescaled verifies the 0..255 rescaling, including the flat image
// degenerate case.
func TestRescaled(t *testing.T) {
	im := &NormalizedImage{Pix: []float64{-1, 0, 1, 3}, Width: 2, Height: 2}
	u8 := im.Rescaled()
	if u8[0] != 0 {
		t.Errorf("minimum rescaled to %d, want 0", u8[0])
	}
	if u8[3] != 255 {
		t.Errorf("maximum rescaled to %d, want 255", u8[3])
	}

	flat := &NormalizedImage{Pix: []float64{2, 2, 2, 2}, Width: 2, Height: 2}
	for i, v := range flat.Rescaled() {
		if v != 0 {
			t.Errorf("flat image pixel %d rescaled to %d, want 0", i, v)
		}
	}
}

// TestFeatureVectorSlice verifies the scaler feature order.
func TestFeatureVectorSlice(t *testing.T) {
	f := FeatureVector{
		MeanIntensity:   1,
		VoxelCount:      2,
		VolumeNum:       3,
		Elongation:      4,
		MajorAxisLength: 5,
		MinorAxisLength: 6,
	}
	want := [6]float64{1, 2, 3, 4, 5, 6}
	if f.Slice() != want {
		t.Errorf("Slice() = %v, want %v", f.Slice(), want)
	}
}

// TestMaskCount verifies pixel counting.
func TestMaskCount(t *testing.T) {
	mask := &TumorMask{Bits: []bool{true, false, true, false}, Width: 2, Height: 2}
	if mask.Count() != 2 {
		t.Errorf("Count() = %d, want 2", mask.Count())
	}
}
