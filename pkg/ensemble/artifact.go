// Package ensemble evaluates the pretrained warm-start tree ensemble.
// The trees and the feature scaler are opaque versioned artifacts
// loaded once at process start; inference is deterministic and
// lock-free, so a single Predictor serves all concurrent requests.
package ensemble

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"brainradiomics/internal/models"
)

// Artifact headers. The version is bumped on any layout change; the
// loader refuses anything it does not understand.
const (
	modelMagic  = "RDXM"
	scalerMagic = "RDXS"

	artifactVersion = 1
)

// maxNodesPerTree bounds a single tree so a corrupt header cannot
// trigger an absurd allocation.
const maxNodesPerTree = 1 << 20

// ArtifactError reports a missing or malformed model artifact. It is
// fatal at startup: serving heuristic-only predictions would silently
// change the documented confidence semantics.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Scaler is the per-feature standardization fitted at training time.
// It must be applied to a feature vector before tree evaluation.
type Scaler struct {
	Mean  [models.NumFeatures]float64
	Scale [models.NumFeatures]float64
}

// Transform standardizes a feature vector into model space. A zero
// scale entry (a constant training feature) passes the centered value
// through unscaled.
func (s *Scaler) Transform(f models.FeatureVector) [models.NumFeatures]float64 {
	x := f.Slice()
	for i := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		x[i] = (x[i] - s.Mean[i]) / scale
	}
	return x
}

// Node is one decision node. Split nodes route on a feature threshold;
// leaf nodes carry a per-class weight vector.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Weights   [models.NumClasses]float64
}

// Tree is a single weak classifier, stored as a flat node array with
// the root at index 0.
type Tree struct {
	Nodes []Node
}

// evaluate follows the decision path for x and returns the leaf's
// class weights normalized to a distribution. Child indexes strictly
// increase along any path (enforced by ReadModel), so the walk always
// reaches a leaf.
func (t *Tree) evaluate(x [models.NumFeatures]float64) models.ClassProbabilities {
	idx := int32(0)
	for {
		node := &t.Nodes[idx]
		if node.Leaf {
			var p models.ClassProbabilities
			copy(p[:], node.Weights[:])
			return p.Normalized()
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// Model is the full pretrained ensemble.
type Model struct {
	Trees []Tree
}

// WriteScaler serializes a scaler artifact.
func WriteScaler(w io.Writer, s *Scaler) error {
	if _, err := w.Write([]byte(scalerMagic)); err != nil {
		return errors.Wrap(err, "write scaler magic")
	}
	hdr := []uint32{artifactVersion, models.NumFeatures}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, "write scaler header")
		}
	}
	if err := binary.Write(w, binary.LittleEndian, s.Mean[:]); err != nil {
		return errors.Wrap(err, "write scaler means")
	}
	if err := binary.Write(w, binary.LittleEndian, s.Scale[:]); err != nil {
		return errors.Wrap(err, "write scaler scales")
	}
	return nil
}

// ReadScaler deserializes a scaler artifact.
func ReadScaler(r io.Reader) (*Scaler, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "read scaler magic")
	}
	if string(magic) != scalerMagic {
		return nil, errors.Errorf("bad scaler magic %q", magic)
	}
	var version, numFeatures uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "read scaler version")
	}
	if version != artifactVersion {
		return nil, errors.Errorf("unsupported scaler version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &numFeatures); err != nil {
		return nil, errors.Wrap(err, "read scaler feature count")
	}
	if numFeatures != models.NumFeatures {
		return nil, errors.Errorf("scaler has %d features, want %d", numFeatures, models.NumFeatures)
	}
	s := &Scaler{}
	if err := binary.Read(r, binary.LittleEndian, s.Mean[:]); err != nil {
		return nil, errors.Wrap(err, "read scaler means")
	}
	if err := binary.Read(r, binary.LittleEndian, s.Scale[:]); err != nil {
		return nil, errors.Wrap(err, "read scaler scales")
	}
	return s, nil
}

// WriteModel serializes a tree ensemble artifact.
func WriteModel(w io.Writer, m *Model) error {
	if _, err := w.Write([]byte(modelMagic)); err != nil {
		return errors.Wrap(err, "write model magic")
	}
	hdr := []uint32{artifactVersion, uint32(len(m.Trees)), models.NumClasses}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, "write model header")
		}
	}
	for ti, tree := range m.Trees {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(tree.Nodes))); err != nil {
			return errors.Wrapf(err, "write tree %d node count", ti)
		}
		for _, node := range tree.Nodes {
			if node.Leaf {
				if err := binary.Write(w, binary.LittleEndian, uint8(1)); err != nil {
					return errors.Wrapf(err, "write tree %d node kind", ti)
				}
				if err := binary.Write(w, binary.LittleEndian, node.Weights[:]); err != nil {
					return errors.Wrapf(err, "write tree %d leaf", ti)
				}
				continue
			}
			if err := binary.Write(w, binary.LittleEndian, uint8(0)); err != nil {
				return errors.Wrapf(err, "write tree %d node kind", ti)
			}
			split := struct {
				Feature     uint8
				Threshold   float64
				Left, Right int32
			}{uint8(node.Feature), node.Threshold, node.Left, node.Right}
			if err := binary.Write(w, binary.LittleEndian, split); err != nil {
				return errors.Wrapf(err, "write tree %d split", ti)
			}
		}
	}
	return nil
}

// ReadModel deserializes and validates a tree ensemble artifact.
func ReadModel(r io.Reader) (*Model, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "read model magic")
	}
	if string(magic) != modelMagic {
		return nil, errors.Errorf("bad model magic %q", magic)
	}
	var version, numTrees, numClasses uint32
	for _, dst := range []*uint32{&version, &numTrees, &numClasses} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, errors.Wrap(err, "read model header")
		}
	}
	if version != artifactVersion {
		return nil, errors.Errorf("unsupported model version %d", version)
	}
	if numTrees == 0 {
		return nil, errors.New("model has no trees")
	}
	if numClasses != models.NumClasses {
		return nil, errors.Errorf("model has %d classes, want %d", numClasses, models.NumClasses)
	}

	m := &Model{Trees: make([]Tree, numTrees)}
	for ti := range m.Trees {
		var numNodes uint32
		if err := binary.Read(r, binary.LittleEndian, &numNodes); err != nil {
			return nil, errors.Wrapf(err, "read tree %d node count", ti)
		}
		if numNodes == 0 || numNodes > maxNodesPerTree {
			return nil, errors.Errorf("tree %d has invalid node count %d", ti, numNodes)
		}
		nodes := make([]Node, numNodes)
		for ni := range nodes {
			var kind uint8
			if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
				return nil, errors.Wrapf(err, "read tree %d node kind", ti)
			}
			switch kind {
			case 1:
				nodes[ni].Leaf = true
				if err := binary.Read(r, binary.LittleEndian, nodes[ni].Weights[:]); err != nil {
					return nil, errors.Wrapf(err, "read tree %d leaf", ti)
				}
				for _, w := range nodes[ni].Weights {
					if w < 0 {
						return nil, errors.Errorf("tree %d has negative leaf weight", ti)
					}
				}
			case 0:
				var split struct {
					Feature     uint8
					Threshold   float64
					Left, Right int32
				}
				if err := binary.Read(r, binary.LittleEndian, &split); err != nil {
					return nil, errors.Wrapf(err, "read tree %d split", ti)
				}
				if int(split.Feature) >= models.NumFeatures {
					return nil, errors.Errorf("tree %d splits on feature %d", ti, split.Feature)
				}
				if int(split.Left) >= len(nodes) || int(split.Right) >= len(nodes) {
					return nil, errors.Errorf("tree %d has out-of-range child index", ti)
				}
				// Children must come after their parent in the flat
				// layout; any decision path then strictly advances and
				// terminates at a leaf.
				if int(split.Left) <= ni || int(split.Right) <= ni {
					return nil, errors.Errorf("tree %d has non-advancing child index", ti)
				}
				nodes[ni].Feature = int(split.Feature)
				nodes[ni].Threshold = split.Threshold
				nodes[ni].Left = split.Left
				nodes[ni].Right = split.Right
			default:
				return nil, errors.Errorf("tree %d has unknown node kind %d", ti, kind)
			}
		}
		m.Trees[ti].Nodes = nodes
	}
	return m, nil
}

// SaveModel writes a model artifact to disk.
func SaveModel(path string, m *Model) error {
	file, err := os.Create(path)
	if err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	defer file.Close()
	if err := WriteModel(file, m); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	return nil
}

// SaveScaler writes a scaler artifact to disk.
func SaveScaler(path string, s *Scaler) error {
	file, err := os.Create(path)
	if err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	defer file.Close()
	if err := WriteScaler(file, s); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	return nil
}
