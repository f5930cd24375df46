package httpadapter

import (
	"net/http"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrImageDecode):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrCaseNotFound), domain.IsKind(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrAlreadyReviewed):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrInferenceDown), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
