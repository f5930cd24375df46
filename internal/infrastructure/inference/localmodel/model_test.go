package localmodel

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

const twoClassArtifact = `classes:
  - normal
  - femur
pool: 1
weights:
  - [1.0, 1.0, 1.0]
  - [-1.0, -1.0, -1.0]
bias: [0.0, 0.0]
`

func TestPreprocessNormalizesAndLetterboxes(t *testing.T) {
	tensor := Preprocess(whiteImage(100, 50))

	const plane = inputSize * inputSize
	if len(tensor) != 3*plane {
		t.Fatalf("tensor length = %d", len(tensor))
	}

	// A 100x50 source scales to 224x112, vertically centered, so the top
	// rows are letterbox black and the middle rows carry the image.
	black := float32((0 - imagenetMean[0]) / imagenetStd[0])
	if tensor[0] != black {
		t.Fatalf("top-left = %v, want letterbox %v", tensor[0], black)
	}

	white := float32((1 - imagenetMean[0]) / imagenetStd[0])
	center := (inputSize/2)*inputSize + inputSize/2
	if math.Abs(float64(tensor[center]-white)) > 1e-3 {
		t.Fatalf("center = %v, want white %v", tensor[center], white)
	}
}

func TestPreprocessSquareFillsCanvas(t *testing.T) {
	tensor := Preprocess(whiteImage(64, 64))

	white := float32((1 - imagenetMean[0]) / imagenetStd[0])
	for _, idx := range []int{0, inputSize - 1, (inputSize-1)*inputSize, inputSize*inputSize - 1} {
		if math.Abs(float64(tensor[idx]-white)) > 1e-3 {
			t.Fatalf("corner %d = %v, want %v (no letterbox for square input)", idx, tensor[idx], white)
		}
	}
}

func TestSoftmaxIsStableForLargeLogits(t *testing.T) {
	probs := softmax([]float64{1000, 999, 998})

	var sum float64
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("softmax overflowed: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	if probs[0] <= probs[1] || probs[1] <= probs[2] {
		t.Fatalf("ordering lost: %v", probs)
	}
}

func TestModelPredictsBrightestClass(t *testing.T) {
	model, err := LoadModel(writeArtifact(t, twoClassArtifact))
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	ft, confidence, err := model.Predict(Preprocess(whiteImage(224, 224)))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if ft != domain.FractureNormal {
		t.Fatalf("predicted %s", ft)
	}
	if confidence <= 0.99 {
		t.Fatalf("confidence = %v, want near-certain for separated logits", confidence)
	}
}

func TestLoadModelValidatesArtifact(t *testing.T) {
	cases := map[string]string{
		"unknown class": `classes: [skull]
pool: 1
weights: [[1.0, 1.0, 1.0]]
bias: [0.0]
`,
		"weight shape mismatch": `classes: [normal]
pool: 1
weights: [[1.0, 1.0]]
bias: [0.0]
`,
		"bias shape mismatch": `classes: [normal]
pool: 1
weights: [[1.0, 1.0, 1.0]]
bias: [0.0, 0.0]
`,
		"pool does not divide input": `classes: [normal]
pool: 13
weights: [[1.0]]
bias: [0.0]
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadModel(writeArtifact(t, content)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestAnalyzerLoadsArtifactOnce(t *testing.T) {
	analyzer := NewAnalyzer(writeArtifact(t, twoClassArtifact))

	var buf bytes.Buffer
	if err := png.Encode(&buf, whiteImage(32, 32)); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	const workers = 8
	results := make([]domain.Inference, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inf, err := analyzer.Analyze(context.Background(), buf.Bytes(), domain.LangEnglish)
			if err != nil {
				t.Errorf("Analyze() error = %v", err)
				return
			}
			results[i] = inf
		}()
	}
	wg.Wait()

	for _, inf := range results {
		if inf.FractureType != results[0].FractureType || inf.Confidence != results[0].Confidence {
			t.Fatalf("concurrent analyses disagree: %+v vs %+v", results[0], inf)
		}
		if inf.Provenance != domain.ProvenanceLocalModel {
			t.Fatalf("provenance = %s", inf.Provenance)
		}
	}
}

func TestAnalyzerMissingArtifactFails(t *testing.T) {
	analyzer := NewAnalyzer(filepath.Join(t.TempDir(), "nope.yaml"))

	var buf bytes.Buffer
	if err := png.Encode(&buf, whiteImage(8, 8)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if _, err := analyzer.Analyze(context.Background(), buf.Bytes(), domain.LangEnglish); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestAnalyzerRejectsUndecodableBytes(t *testing.T) {
	analyzer := NewAnalyzer(writeArtifact(t, twoClassArtifact))

	_, err := analyzer.Analyze(context.Background(), []byte("not an image"), domain.LangEnglish)
	if !domain.IsKind(err, domain.ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}
