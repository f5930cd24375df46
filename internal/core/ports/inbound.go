package ports

import (
	"context"
	"io"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

type SubmitInput struct {
	Filename string
	MimeType string
	Language domain.Language
	Body     io.Reader
}

// CaseSubmitter is the inbound contract for creating a case from an
// uploaded image, atomically with its inference result.
type CaseSubmitter interface {
	Submit(ctx context.Context, owner domain.Identity, input SubmitInput) (*domain.Case, error)
}

// ReviewInput carries the reviewer's binary choice: confirm the AI
// diagnosis as-is, or override it with an explicit alternative.
type ReviewInput struct {
	ConfirmAI bool
	Diagnosis domain.FractureType
	Notes     string
}

// CaseReviewer is the inbound contract for the doctor-confirmation
// transition. Callers must already be authenticated; role gating happens
// here, at the operation boundary.
type CaseReviewer interface {
	Review(ctx context.Context, reviewer domain.Identity, caseID string, input ReviewInput) (*domain.Case, error)
}

// DeleteReport is the aggregate outcome of a destructive operation.
// Partial failure is never collapsed into a boolean.
type DeleteReport struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// CaseDeleter removes cases and their stored images with per-item
// failure isolation.
type CaseDeleter interface {
	Delete(ctx context.Context, caller domain.Identity, ids []string) (DeleteReport, error)
}

// CaseNarrator is the worker-side contract for attaching clinical
// insights to a created case.
type CaseNarrator interface {
	NarrateByID(ctx context.Context, caseID string) error
}
