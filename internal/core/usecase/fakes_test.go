package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

// caseRepoFake is an in-memory CaseRepository with injectable faults.
type caseRepoFake struct {
	mu    sync.Mutex
	cases map[string]*domain.Case

	createErr    error
	getErr       error
	deleteErr    map[string]error
	markErr      error
	insightsErr  error
	markCalls    int
	savedCaseIDs []string
}

func newCaseRepoFake(seed ...*domain.Case) *caseRepoFake {
	f := &caseRepoFake{
		cases:     make(map[string]*domain.Case),
		deleteErr: make(map[string]error),
	}
	for _, c := range seed {
		copied := *c
		f.cases[c.ID] = &copied
	}
	return f
}

func (f *caseRepoFake) Create(_ context.Context, c *domain.Case) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *c
	f.cases[c.ID] = &copied
	return nil
}

func (f *caseRepoFake) GetByID(_ context.Context, id string) (*domain.Case, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", errNotSeeded)
	}
	copied := *c
	return &copied, nil
}

func (f *caseRepoFake) List(_ context.Context, _ ports.CaseFilter) ([]domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Case, 0, len(f.cases))
	for _, c := range f.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (f *caseRepoFake) MarkReviewed(_ context.Context, id, reviewerID string, diagnosis domain.FractureType, notes string, reviewedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	c, ok := f.cases[id]
	if !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "mark reviewed", errNotSeeded)
	}
	if c.Status == domain.StatusDoctorConfirmed {
		return domain.WrapError(domain.ErrAlreadyReviewed, "mark reviewed", errNotSeeded)
	}
	c.Status = domain.StatusDoctorConfirmed
	c.DoctorDiagnosis = &diagnosis
	c.ReviewerID = reviewerID
	c.ReviewerNotes = notes
	c.ReviewedAt = &reviewedAt
	return nil
}

func (f *caseRepoFake) SaveInsights(_ context.Context, id string, insights domain.ClinicalInsights) error {
	if f.insightsErr != nil {
		return f.insightsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "save insights", errNotSeeded)
	}
	c.Insights = &insights
	f.savedCaseIDs = append(f.savedCaseIDs, id)
	return nil
}

func (f *caseRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.deleteErr[id]; ok {
		return err
	}
	if _, ok := f.cases[id]; !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "delete case", errNotSeeded)
	}
	delete(f.cases, id)
	return nil
}

func (f *caseRepoFake) stored(id string) (*domain.Case, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	return c, ok
}

var errNotSeeded = io.EOF

type imageStoreFake struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
	delErr  map[string]error
	deleted []string
}

func newImageStoreFake() *imageStoreFake {
	return &imageStoreFake{
		blobs:  make(map[string][]byte),
		delErr: make(map[string]error),
	}
}

func (f *imageStoreFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = raw
	return nil
}

func (f *imageStoreFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return nil, io.ErrUnexpectedEOF
}

func (f *imageStoreFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if err, ok := f.delErr[key]; ok {
		return err
	}
	delete(f.blobs, key)
	return nil
}

type analyzerFake struct {
	inference domain.Inference
	err       error
}

func (f *analyzerFake) Analyze(_ context.Context, _ []byte, _ domain.Language) (domain.Inference, error) {
	if f.err != nil {
		return domain.Inference{}, f.err
	}
	return f.inference, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishCaseCreated(_ context.Context, caseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, caseID)
	return nil
}

func (f *queueFake) SubscribeCaseCreated(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

type generatorFake struct {
	insights domain.ClinicalInsights
	err      error
	calls    int
}

func (f *generatorFake) Generate(_ context.Context, _ domain.FractureType, _ float64, _ domain.Language) (domain.ClinicalInsights, error) {
	f.calls++
	if f.err != nil {
		return domain.ClinicalInsights{}, f.err
	}
	return f.insights, nil
}
