package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	_ "image/jpeg"
	_ "image/png"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

// Recorder receives chain outcomes for the metrics layer. A nil Recorder
// is valid and records nothing.
type Recorder interface {
	RecordResult(provenance domain.Provenance)
	RecordFallback(from, to domain.Provenance)
}

type tier struct {
	provenance domain.Provenance
	analyzer   ports.FractureAnalyzer
}

// Chain runs the analyzer tiers in fixed order, remote first, then the
// in-process model, then the simulator, returning the first answer. Tier
// failures are absorbed and logged; the chain itself fails only when the
// input is not a decodable image or every configured tier refused.
type Chain struct {
	tiers   []tier
	metrics Recorder
}

func NewChain(remote, local, simulated ports.FractureAnalyzer, metrics Recorder) *Chain {
	c := &Chain{metrics: metrics}
	for _, t := range []tier{
		{domain.ProvenanceRemote, remote},
		{domain.ProvenanceLocalModel, local},
		{domain.ProvenanceSimulated, simulated},
	} {
		if t.analyzer != nil {
			c.tiers = append(c.tiers, t)
		}
	}
	return c
}

func (c *Chain) Analyze(ctx context.Context, img []byte, lang domain.Language) (domain.Inference, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return domain.Inference{}, domain.WrapError(domain.ErrImageDecode, "decode image", err)
	}
	if len(c.tiers) == 0 {
		return domain.Inference{}, domain.WrapError(domain.ErrInferenceDown, "analyze", errNoTiers)
	}

	var lastErr error
	for i, t := range c.tiers {
		if err := ctx.Err(); err != nil {
			return domain.Inference{}, err
		}

		inf, err := t.analyzer.Analyze(ctx, img, lang)
		if err == nil {
			inf.Provenance = t.provenance
			c.recordResult(t.provenance)
			return inf, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Inference{}, err
		}

		lastErr = err
		if i+1 < len(c.tiers) {
			next := c.tiers[i+1].provenance
			slog.Warn("inference_tier_fell_back",
				"from", string(t.provenance),
				"to", string(next),
				"error", err,
			)
			c.recordFallback(t.provenance, next)
		}
	}

	return domain.Inference{}, domain.WrapError(domain.ErrInferenceDown, "analyze", lastErr)
}

func (c *Chain) recordResult(p domain.Provenance) {
	if c.metrics != nil {
		c.metrics.RecordResult(p)
	}
}

func (c *Chain) recordFallback(from, to domain.Provenance) {
	if c.metrics != nil {
		c.metrics.RecordFallback(from, to)
	}
}

var errNoTiers = fmt.Errorf("no analyzer tiers configured")
