package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainradiomics/internal/models"
)

// gliomaVector is chosen to sit inside every glioma interval while
// missing most intervals of the other classes.
func gliomaVector() models.FeatureVector {
	return models.FeatureVector{
		MeanIntensity:   27,
		VoxelCount:      4000,
		VolumeNum:       25,
		Elongation:      0.88,
		MajorAxisLength: 265,
		MinorAxisLength: 222,
	}
}

// brainScanVector resembles a scan without a focal lesion after the
// whole-brain mask fallback: a very large region count of pixels in one
// connected piece.
func brainScanVector() models.FeatureVector {
	return models.FeatureVector{
		MeanIntensity:   60,
		VoxelCount:      15000,
		VolumeNum:       1,
		Elongation:      0.79,
		MajorAxisLength: 240,
		MinorAxisLength: 190,
	}
}

func TestRawScores(t *testing.T) {
	scores := RawScores(gliomaVector())

	assert.Equal(t, 6, scores[models.ClassGlioma], "all six features match glioma")
	assert.Less(t, scores[models.ClassMeningioma], 6)
	assert.Less(t, scores[models.ClassPituitary], 6)
	assert.Less(t, scores[models.ClassNotumor], 6)
}

func TestScoreGlioma(t *testing.T) {
	p := Score(gliomaVector())

	assert.Equal(t, models.ClassGlioma, p.ArgMax())
	assert.InDelta(t, 1.0, p.Sum(), 1e-12)
}

func TestScoreBrainScan(t *testing.T) {
	p := Score(brainScanVector())

	assert.Equal(t, models.ClassNotumor, p.ArgMax())
}

func TestScoreEmptyMaskVector(t *testing.T) {
	// The all-zero vector of an empty segmentation must resolve to "no
	// tumor": every zero-relaxed no-tumor interval matches while the
	// tumor classes match nothing.
	p := Score(models.FeatureVector{})

	assert.Equal(t, models.ClassNotumor, p.ArgMax())
	assert.Equal(t, 1.0, p[models.ClassNotumor])
	assert.Equal(t, 0.0, p[models.ClassGlioma])
	assert.Equal(t, 0.0, p[models.ClassMeningioma])
	assert.Equal(t, 0.0, p[models.ClassPituitary])
}

func TestScoreNoMatchIsUniform(t *testing.T) {
	// A vector outside every interval of every class.
	f := models.FeatureVector{
		MeanIntensity:   150,
		VoxelCount:      7000,
		VolumeNum:       50,
		Elongation:      0.99,
		MajorAxisLength: 400,
		MinorAxisLength: 300,
	}

	require.Equal(t, [models.NumClasses]int{}, RawScores(f))

	p := Score(f)
	for c, v := range p {
		assert.InDelta(t, 0.25, v, 1e-12, "class %s", models.Class(c))
	}
	assert.Equal(t, models.ClassGlioma, p.ArgMax(), "uniform tie resolves by preference order")
}

func TestScoreIsDistribution(t *testing.T) {
	vectors := []models.FeatureVector{
		{},
		gliomaVector(),
		brainScanVector(),
		{MeanIntensity: 45, VoxelCount: 5000, VolumeNum: 15, Elongation: 0.85, MajorAxisLength: 258, MinorAxisLength: 221},
	}

	for i, f := range vectors {
		p := Score(f)
		sum := 0.0
		for _, v := range p {
			require.GreaterOrEqual(t, v, 0.0, "vector %d", i)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "vector %d", i)
	}
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Min: 10, Max: 20}

	assert.True(t, iv.Contains(10), "inclusive lower bound")
	assert.True(t, iv.Contains(20), "inclusive upper bound")
	assert.True(t, iv.Contains(15))
	assert.False(t, iv.Contains(9.999))
	assert.False(t, iv.Contains(20.001))
}

func TestRanges(t *testing.T) {
	glioma := Ranges(models.ClassGlioma)
	assert.Equal(t, Interval{3400, 5100}, glioma.VoxelCount)

	notumor := Ranges(models.ClassNotumor)
	assert.Equal(t, 0.0, notumor.VolumeNum.Min, "no-tumor lower bounds relaxed to zero")
	assert.Equal(t, Interval{10000, 40000}, notumor.VoxelCount)
}

func TestContributions(t *testing.T) {
	f := gliomaVector()
	contribs := Contributions(f, models.ClassGlioma)

	for _, c := range contribs {
		assert.Equal(t, 1.0, c.Score, "%s should match its own class range", c.Feature)
		assert.Contains(t, c.Explanation, "matches")
	}

	assert.Equal(t, FeatureNames[0], contribs[0].Feature)
	assert.Equal(t, f.MeanIntensity, contribs[0].Value)
}

func TestContributionsDecay(t *testing.T) {
	// Glioma expects intensity in [25, 50] (width 25).
	t.Run("just below the range", func(t *testing.T) {
		f := models.FeatureVector{MeanIntensity: 20}
		c := Contributions(f, models.ClassGlioma)[0]
		assert.InDelta(t, 0.8, c.Score, 1e-12)
		assert.Contains(t, c.Explanation, "below")
	})

	t.Run("just above the range", func(t *testing.T) {
		f := models.FeatureVector{MeanIntensity: 55}
		c := Contributions(f, models.ClassGlioma)[0]
		assert.InDelta(t, 0.8, c.Score, 1e-12)
		assert.Contains(t, c.Explanation, "above")
	})

	t.Run("far outside the range", func(t *testing.T) {
		f := models.FeatureVector{MeanIntensity: 500}
		c := Contributions(f, models.ClassGlioma)[0]
		assert.Equal(t, 0.0, c.Score)
	})
}
