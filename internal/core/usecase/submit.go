package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

// maxImageBytes bounds how much of an upload is read into memory before
// inference. Radiographs above this are rejected as invalid input.
const maxImageBytes = 32 << 20

type SubmitCaseUseCase struct {
	repo     ports.CaseRepository
	images   ports.ImageStore
	analyzer ports.FractureAnalyzer
	queue    ports.MessageQueue
	now      func() time.Time
}

func NewSubmitCaseUseCase(
	repo ports.CaseRepository,
	images ports.ImageStore,
	analyzer ports.FractureAnalyzer,
	queue ports.MessageQueue,
) *SubmitCaseUseCase {
	return &SubmitCaseUseCase{
		repo:     repo,
		images:   images,
		analyzer: analyzer,
		queue:    queue,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit runs inference first so that malformed input fails before any
// blob or record is written, then persists the case atomically with its
// result. The narrative event is best-effort: the worker catches up later
// if the queue is down, and a lost event only costs the insights text.
func (uc *SubmitCaseUseCase) Submit(ctx context.Context, owner domain.Identity, input ports.SubmitInput) (*domain.Case, error) {
	if owner.ID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit case", errMissingOwner)
	}

	raw, err := readImage(input.Body)
	if err != nil {
		return nil, err
	}

	inference, err := uc.analyzer.Analyze(ctx, raw, input.Language)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}

	status := inference.Status
	if !status.Valid() {
		status = domain.StatusForConfidence(inference.Confidence)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(input.Filename))

	if err := uc.images.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save image to store: %w", err)
	}

	c := &domain.Case{
		ID:          id,
		OwnerID:     owner.ID,
		ImagePath:   storageKey,
		AIDiagnosis: inference.FractureType,
		Confidence:  inference.Confidence,
		Status:      status,
		Provenance:  inference.Provenance,
		Language:    input.Language,
		CreatedAt:   uc.now(),
	}

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case record: %w", err)
	}

	if err := uc.queue.PublishCaseCreated(ctx, c.ID); err != nil {
		slog.Warn("case_created_publish_failed", "case_id", c.ID, "error", err)
	}

	return c, nil
}

var errMissingOwner = fmt.Errorf("owner identity is required")

func readImage(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read image", fmt.Errorf("empty body"))
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read image", fmt.Errorf("empty body"))
	}
	if len(raw) > maxImageBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read image", fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}
	return raw, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "scan.bin"
	}
	return base
}
