// Package pipeline wires the classification stages together:
// preprocessing, segmentation, feature extraction, the two scoring
// strategies and the final blend. One Pipeline value is built at
// process start around the loaded model artifacts and then shared by
// all requests; every classification is a pure function of its input
// image.
package pipeline

import (
	"fmt"
	"image"
	"math"
	"sync"

	"brainradiomics/internal/models"
	"brainradiomics/pkg/ensemble"
	"brainradiomics/pkg/heuristic"
	"brainradiomics/pkg/preprocess"
	"brainradiomics/pkg/radiomics"
	"brainradiomics/pkg/segmentation"
)

// Default fusion weights: the interpretable range heuristic carries
// slightly more weight than the opaque tree ensemble.
const (
	DefaultEnsembleWeight  = 0.4
	DefaultHeuristicWeight = 0.6
)

// probTolerance is the acceptable floating drift of a probability sum
// from 1 after renormalization.
const probTolerance = 1e-6

// InvariantError reports a violated internal invariant, a defect in the
// pipeline rather than a property of the input. It aborts the single
// request carrying it.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Msg
}

// Params configures a Pipeline.
type Params struct {
	// Predictor is the loaded pretrained ensemble. Required.
	Predictor *ensemble.Predictor

	// Segmentation overrides the default segmentation thresholds.
	Segmentation segmentation.Params

	// EnsembleWeight and HeuristicWeight control the fusion. Both zero
	// selects the documented defaults.
	EnsembleWeight  float64
	HeuristicWeight float64
}

// Pipeline is the classification entry point. Read-only after New;
// safe for concurrent use.
type Pipeline struct {
	predictor       *ensemble.Predictor
	segmenter       *segmentation.Segmenter
	ensembleWeight  float64
	heuristicWeight float64
}

// New builds a pipeline around a loaded predictor.
func New(params Params) (*Pipeline, error) {
	if params.Predictor == nil {
		return nil, fmt.Errorf("pipeline requires a loaded ensemble predictor")
	}
	seg := params.Segmentation
	if seg == (segmentation.Params{}) {
		seg = segmentation.DefaultParams()
	}
	we, wh := params.EnsembleWeight, params.HeuristicWeight
	if we == 0 && wh == 0 {
		we, wh = DefaultEnsembleWeight, DefaultHeuristicWeight
	}
	if we < 0 || wh < 0 || we+wh == 0 {
		return nil, fmt.Errorf("invalid fusion weights %g/%g", we, wh)
	}
	return &Pipeline{
		predictor:       params.Predictor,
		segmenter:       segmentation.NewSegmenter(seg),
		ensembleWeight:  we,
		heuristicWeight: wh,
	}, nil
}

// Classify runs the full pipeline on a raw image: normalize, segment,
// extract features, score with both strategies and blend. The stages
// run to completion synchronously; there are no suspension points and
// no retries inside this deterministic, I/O-free core.
func (p *Pipeline) Classify(img image.Image) (*models.PredictionResult, error) {
	normalized, err := preprocess.Normalize(img)
	if err != nil {
		return nil, err
	}
	return p.ClassifyNormalized(normalized)
}

// ClassifyNormalized classifies an already-normalized image. Two calls
// with identical pixel grids produce identical results.
func (p *Pipeline) ClassifyNormalized(im *models.NormalizedImage) (*models.PredictionResult, error) {
	mask := p.segmenter.Segment(im)
	features := radiomics.Extract(im, mask)

	ensembleProbs := p.predictor.Predict(features)
	heuristicProbs := heuristic.Score(features)

	final, err := Blend(ensembleProbs, heuristicProbs, p.ensembleWeight, p.heuristicWeight)
	if err != nil {
		return nil, err
	}

	label := final.ArgMax()
	result := &models.PredictionResult{
		Label:         label,
		Confidence:    final[label],
		Risk:          models.RiskFor(label),
		Probabilities: final,
	}
	if im.Degenerate {
		result.Warnings = append(result.Warnings, "flat source image: normalization degenerate, low-confidence result")
	}
	if mask.Count() == 0 {
		result.Warnings = append(result.Warnings, "empty segmentation mask: no candidate region found")
	}
	return result, nil
}

// Inspect runs only the deterministic front half of the pipeline and
// returns the intermediate representations, for overlay rendering and
// per-feature reporting.
func (p *Pipeline) Inspect(img image.Image) (*models.NormalizedImage, *models.TumorMask, models.FeatureVector, error) {
	normalized, err := preprocess.Normalize(img)
	if err != nil {
		return nil, nil, models.FeatureVector{}, err
	}
	mask := p.segmenter.Segment(normalized)
	return normalized, mask, radiomics.Extract(normalized, mask), nil
}

// Blend fuses the two probability vectors with the given weights and
// renormalizes the result to guard against residual floating error.
func Blend(ensembleProbs, heuristicProbs models.ClassProbabilities, ensembleWeight, heuristicWeight float64) (models.ClassProbabilities, error) {
	var fused models.ClassProbabilities
	for c := range fused {
		fused[c] = ensembleWeight*ensembleProbs[c] + heuristicWeight*heuristicProbs[c]
	}
	fused = fused.Normalized()

	if math.Abs(fused.Sum()-1) > probTolerance {
		return fused, &InvariantError{Msg: fmt.Sprintf("blended probabilities sum to %v", fused.Sum())}
	}
	for c, v := range fused {
		if v < 0 || math.IsNaN(v) {
			return fused, &InvariantError{Msg: fmt.Sprintf("probability of %s is %v", models.Class(c), v)}
		}
	}
	return fused, nil
}

// BatchItem is the outcome of one image in a batch classification.
type BatchItem struct {
	Index  int
	Result *models.PredictionResult
	Err    error
}

// ClassifyBatch classifies a set of images in parallel across the
// given number of workers. Requests are independent; the only shared
// resource is the read-only model, so no locking is needed. Results
// come back in input order and per-image failures do not stop the
// batch.
func (p *Pipeline) ClassifyBatch(imgs []image.Image, workers int) []BatchItem {
	if workers < 1 {
		workers = 1
	}
	out := make([]BatchItem, len(imgs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := p.Classify(imgs[i])
				out[i] = BatchItem{Index: i, Result: result, Err: err}
			}
		}()
	}
	for i := range imgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
