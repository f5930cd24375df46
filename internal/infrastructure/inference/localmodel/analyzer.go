package localmodel

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

// Analyzer is the in-process fallback tier. The artifact is loaded on
// first use, not at construction, so a missing or corrupt file costs
// nothing until the remote tier is actually down.
type Analyzer struct {
	path string

	once    sync.Once
	model   *Model
	loadErr error
}

func NewAnalyzer(path string) *Analyzer {
	return &Analyzer{path: path}
}

func (a *Analyzer) Analyze(_ context.Context, img []byte, _ domain.Language) (domain.Inference, error) {
	a.once.Do(func() {
		start := time.Now()
		a.model, a.loadErr = LoadModel(a.path)
		if a.loadErr != nil {
			slog.Warn("local_model_load_failed", "path", a.path, "error", a.loadErr)
			return
		}
		slog.Info("local_model_loaded", "path", a.path, "classes", len(a.model.classes), "duration_ms", time.Since(start).Milliseconds())
	})
	if a.loadErr != nil {
		return domain.Inference{}, a.loadErr
	}

	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return domain.Inference{}, domain.WrapError(domain.ErrImageDecode, "decode image", err)
	}

	ft, confidence, err := a.model.Predict(Preprocess(decoded))
	if err != nil {
		return domain.Inference{}, err
	}
	return domain.Inference{
		FractureType: ft,
		Confidence:   round2(confidence),
		Provenance:   domain.ProvenanceLocalModel,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
