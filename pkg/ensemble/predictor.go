package ensemble

import (
	"os"

	"brainradiomics/internal/models"
)

// Predictor evaluates the loaded ensemble against raw feature vectors.
// Read-only after construction; safe for concurrent use.
type Predictor struct {
	model  *Model
	scaler *Scaler
}

// NewPredictor wraps an already-decoded model and scaler.
func NewPredictor(model *Model, scaler *Scaler) *Predictor {
	return &Predictor{model: model, scaler: scaler}
}

// Load reads both artifacts from disk. Any failure is fatal for the
// caller: the pipeline must refuse to serve predictions rather than
// fall back to heuristic-only scoring.
func Load(modelPath, scalerPath string) (*Predictor, error) {
	modelFile, err := os.Open(modelPath)
	if err != nil {
		return nil, &ArtifactError{Path: modelPath, Err: err}
	}
	defer modelFile.Close()
	model, err := ReadModel(modelFile)
	if err != nil {
		return nil, &ArtifactError{Path: modelPath, Err: err}
	}

	scalerFile, err := os.Open(scalerPath)
	if err != nil {
		return nil, &ArtifactError{Path: scalerPath, Err: err}
	}
	defer scalerFile.Close()
	scaler, err := ReadScaler(scalerFile)
	if err != nil {
		return nil, &ArtifactError{Path: scalerPath, Err: err}
	}

	return NewPredictor(model, scaler), nil
}

// NumTrees returns the ensemble size.
func (p *Predictor) NumTrees() int { return len(p.model.Trees) }

// Predict standardizes the feature vector with the training-time
// scaler, averages the per-tree leaf distributions and renormalizes.
// Same vector in, same output out: there is no randomness at inference.
func (p *Predictor) Predict(f models.FeatureVector) models.ClassProbabilities {
	x := p.scaler.Transform(f)

	var acc models.ClassProbabilities
	for i := range p.model.Trees {
		proba := p.model.Trees[i].evaluate(x)
		for c := range acc {
			acc[c] += proba[c]
		}
	}
	n := float64(len(p.model.Trees))
	for c := range acc {
		acc[c] /= n
	}
	return acc.Normalized()
}
