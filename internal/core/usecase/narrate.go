package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

type NarrateCaseUseCase struct {
	repo      ports.CaseRepository
	generator ports.InsightsGenerator
}

func NewNarrateCaseUseCase(repo ports.CaseRepository, generator ports.InsightsGenerator) *NarrateCaseUseCase {
	return &NarrateCaseUseCase{repo: repo, generator: generator}
}

// NarrateByID attaches clinical insights to a freshly created case.
// Safe to redeliver: a case that already carries insights is left alone.
// When the language model stays unreachable the deterministic fallback
// narrative is stored instead, so no case ends up without one.
func (uc *NarrateCaseUseCase) NarrateByID(ctx context.Context, caseID string) error {
	c, err := uc.repo.GetByID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case for narration: %w", err)
	}
	if c.Insights != nil {
		return nil
	}

	insights, err := uc.generator.Generate(ctx, c.AIDiagnosis, c.Confidence, c.Language)
	if err != nil {
		slog.Warn("insights_generation_fell_back", "case_id", caseID, "error", err)
		insights = domain.FallbackInsights(c.AIDiagnosis, c.Confidence, c.Language)
	}

	if err := uc.repo.SaveInsights(ctx, caseID, insights); err != nil {
		return fmt.Errorf("save insights: %w", err)
	}
	return nil
}
