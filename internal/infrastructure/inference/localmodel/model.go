package localmodel

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

// Artifact is the serialized classification head shipped alongside the
// binary: a linear layer over mean-pooled image features. Small enough to
// live in a YAML file and load in milliseconds.
type Artifact struct {
	Classes []string    `yaml:"classes"`
	Pool    int         `yaml:"pool"`
	Weights [][]float64 `yaml:"weights"`
	Bias    []float64   `yaml:"bias"`
}

type Model struct {
	classes []domain.FractureType
	pool    int
	weights [][]float64
	bias    []float64
}

func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact Artifact
	if err := yaml.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return newModel(artifact)
}

func newModel(artifact Artifact) (*Model, error) {
	if len(artifact.Classes) == 0 {
		return nil, fmt.Errorf("model artifact has no classes")
	}
	if artifact.Pool <= 0 || inputSize%artifact.Pool != 0 {
		return nil, fmt.Errorf("model artifact pool %d must evenly divide %d", artifact.Pool, inputSize)
	}

	featureDim := 3 * artifact.Pool * artifact.Pool
	if len(artifact.Weights) != len(artifact.Classes) {
		return nil, fmt.Errorf("model artifact has %d weight rows for %d classes", len(artifact.Weights), len(artifact.Classes))
	}
	if len(artifact.Bias) != len(artifact.Classes) {
		return nil, fmt.Errorf("model artifact has %d bias terms for %d classes", len(artifact.Bias), len(artifact.Classes))
	}

	classes := make([]domain.FractureType, len(artifact.Classes))
	for i, name := range artifact.Classes {
		ft, err := domain.ParseFractureType(name)
		if err != nil {
			return nil, fmt.Errorf("model artifact class %q: %w", name, err)
		}
		classes[i] = ft
		if len(artifact.Weights[i]) != featureDim {
			return nil, fmt.Errorf("model artifact weight row %d has %d terms, want %d", i, len(artifact.Weights[i]), featureDim)
		}
	}

	return &Model{
		classes: classes,
		pool:    artifact.Pool,
		weights: artifact.Weights,
		bias:    artifact.Bias,
	}, nil
}

// Predict runs the linear head over the preprocessed tensor and returns
// the winning class with its softmax probability.
func (m *Model) Predict(tensor []float32) (domain.FractureType, float64, error) {
	const plane = inputSize * inputSize
	if len(tensor) != 3*plane {
		return "", 0, fmt.Errorf("tensor has %d values, want %d", len(tensor), 3*plane)
	}

	features := poolFeatures(tensor, m.pool)
	logits := make([]float64, len(m.classes))
	for i, row := range m.weights {
		sum := m.bias[i]
		for j, w := range row {
			sum += w * features[j]
		}
		logits[i] = sum
	}

	probs := softmax(logits)
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.classes[best], probs[best], nil
}

// poolFeatures mean-pools each channel plane down to a pool x pool grid.
func poolFeatures(tensor []float32, pool int) []float64 {
	const plane = inputSize * inputSize
	cell := inputSize / pool
	features := make([]float64, 3*pool*pool)

	for c := range 3 {
		for py := range pool {
			for px := range pool {
				var sum float64
				for y := py * cell; y < (py+1)*cell; y++ {
					rowBase := c*plane + y*inputSize
					for x := px * cell; x < (px+1)*cell; x++ {
						sum += float64(tensor[rowBase+x])
					}
				}
				features[c*pool*pool+py*pool+px] = sum / float64(cell*cell)
			}
		}
	}
	return features
}

// softmax subtracts the max logit before exponentiating so large logits
// do not overflow.
func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
