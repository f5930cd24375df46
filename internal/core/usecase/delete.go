package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

type DeleteCasesUseCase struct {
	repo   ports.CaseRepository
	images ports.ImageStore
}

func NewDeleteCasesUseCase(repo ports.CaseRepository, images ports.ImageStore) *DeleteCasesUseCase {
	return &DeleteCasesUseCase{repo: repo, images: images}
}

// Delete removes each requested case independently: an item's failure
// never aborts or rolls back its siblings. Ids are deduplicated so each
// contributes exactly one attempt to the aggregate. Items run as
// concurrent tasks whose only shared state is the pair of counters.
func (uc *DeleteCasesUseCase) Delete(ctx context.Context, caller domain.Identity, ids []string) (ports.DeleteReport, error) {
	if len(ids) == 0 {
		return ports.DeleteReport{}, domain.WrapError(domain.ErrInvalidInput, "delete cases", fmt.Errorf("no ids given"))
	}

	unique := dedupe(ids)

	var succeeded, failed atomic.Int64
	var wg sync.WaitGroup
	for _, id := range unique {
		wg.Add(1)
		go func(caseID string) {
			defer wg.Done()
			if err := uc.deleteOne(ctx, caller, caseID); err != nil {
				slog.Warn("case_delete_failed", "case_id", caseID, "error", err)
				failed.Add(1)
				return
			}
			succeeded.Add(1)
		}(id)
	}
	wg.Wait()

	return ports.DeleteReport{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// deleteOne follows the deliberate cleanup ordering: image first,
// tolerating its failure, then the record, whose outcome alone decides
// the item's result. A record that is already gone is a success.
func (uc *DeleteCasesUseCase) deleteOne(ctx context.Context, caller domain.Identity, id string) error {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.ErrCaseNotFound) {
			return nil
		}
		return fmt.Errorf("load case for deletion: %w", err)
	}

	if !caller.Role.CanManageIdentities() && c.OwnerID != caller.ID {
		return domain.WrapError(domain.ErrForbidden, "delete case",
			fmt.Errorf("identity %s does not own case %s", caller.ID, id))
	}

	if c.ImagePath != "" {
		if err := uc.images.Delete(ctx, c.ImagePath); err != nil {
			slog.Warn("case_image_delete_failed", "case_id", id, "image_path", c.ImagePath, "error", err)
		}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		if domain.IsKind(err, domain.ErrCaseNotFound) {
			return nil
		}
		return fmt.Errorf("delete case record: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
