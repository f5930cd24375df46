package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

type ReviewCaseUseCase struct {
	repo ports.CaseRepository
	now  func() time.Time
}

func NewReviewCaseUseCase(repo ports.CaseRepository) *ReviewCaseUseCase {
	return &ReviewCaseUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Review performs the doctor-confirmation transition. The repository
// applies all review fields in a single conditional write, so two
// concurrent reviewers cannot both succeed: the precondition is
// re-validated against stored state at commit time, not just here.
func (uc *ReviewCaseUseCase) Review(ctx context.Context, reviewer domain.Identity, caseID string, input ports.ReviewInput) (*domain.Case, error) {
	if !reviewer.Role.CanReview() {
		return nil, domain.WrapError(domain.ErrForbidden, "review case",
			fmt.Errorf("role %q may not review", reviewer.Role))
	}

	c, err := uc.repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case for review: %w", err)
	}
	if c.Reviewed() {
		return nil, domain.WrapError(domain.ErrAlreadyReviewed, "review case",
			fmt.Errorf("case %s is doctor_confirmed", caseID))
	}

	diagnosis := input.Diagnosis
	if input.ConfirmAI {
		diagnosis = c.AIDiagnosis
	}
	if !diagnosis.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "review case",
			fmt.Errorf("diagnosis %q is not a known fracture type", diagnosis))
	}

	reviewedAt := uc.now()
	if err := uc.repo.MarkReviewed(ctx, caseID, reviewer.ID, diagnosis, input.Notes, reviewedAt); err != nil {
		return nil, fmt.Errorf("mark case reviewed: %w", err)
	}

	c.Status = domain.StatusDoctorConfirmed
	c.DoctorDiagnosis = &diagnosis
	c.ReviewerID = reviewer.ID
	c.ReviewerNotes = input.Notes
	c.ReviewedAt = &reviewedAt
	return c, nil
}
