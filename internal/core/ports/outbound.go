package ports

import (
	"context"
	"io"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

// CaseFilter narrows List. Zero values mean "no constraint".
type CaseFilter struct {
	OwnerID     string
	Status      domain.CaseStatus
	OldestFirst bool
}

// CaseRepository persists and reads case state. MarkReviewed is the only
// lifecycle mutation: it must set all review fields in one atomic write
// and re-validate the terminal-state precondition at commit time.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	MarkReviewed(ctx context.Context, id, reviewerID string, diagnosis domain.FractureType, notes string, reviewedAt time.Time) error
	SaveInsights(ctx context.Context, id string, insights domain.ClinicalInsights) error
	Delete(ctx context.Context, id string) error
}

// IdentityRepository reads and administers account profiles.
type IdentityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}

// ImageStore holds the submitted radiographs. Delete is best-effort from
// the deletion coordinator's point of view: a failure is logged upstream
// and never blocks record removal.
type ImageStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FractureAnalyzer produces a best-effort classification for raw image
// bytes. Implementations fail only on undecodable input.
type FractureAnalyzer interface {
	Analyze(ctx context.Context, image []byte, lang domain.Language) (domain.Inference, error)
}

// InsightsGenerator creates the clinical narrative for a diagnosis.
type InsightsGenerator interface {
	Generate(ctx context.Context, fractureType domain.FractureType, confidence float64, lang domain.Language) (domain.ClinicalInsights, error)
}

// MessageQueue carries case-created events from the api to the worker.
type MessageQueue interface {
	PublishCaseCreated(ctx context.Context, caseID string) error
	SubscribeCaseCreated(ctx context.Context, handler func(context.Context, string) error) error
}
