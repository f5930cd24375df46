package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

// caseView is the wire shape of a case: the stored record plus display
// labels localized to the case language.
type caseView struct {
	domain.Case
	AIDiagnosisLabel     string `json:"aiDiagnosisLabel"`
	DoctorDiagnosisLabel string `json:"doctorDiagnosisLabel,omitempty"`
}

func newCaseView(c *domain.Case) caseView {
	view := caseView{
		Case:             *c,
		AIDiagnosisLabel: fractureLabel(c.AIDiagnosis, c.Language),
	}
	if c.DoctorDiagnosis != nil {
		view.DoctorDiagnosisLabel = fractureLabel(*c.DoctorDiagnosis, c.Language)
	}
	return view
}

func (rt *Router) casesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitCase(w, r)
	case http.MethodGet:
		rt.listCases(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// casesItem dispatches /v1/cases/{id}, /v1/cases/{id}/review and
// /v1/cases/bulk-delete.
func (rt *Router) casesItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/cases/")
	if rest == "bulk-delete" {
		rt.bulkDeleteCases(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "case id is required"})
		return
	}

	switch {
	case action == "review":
		rt.reviewCase(w, r, id)
	case action != "":
		http.NotFound(w, r)
	case r.Method == http.MethodGet:
		rt.getCase(w, r, id)
	case r.Method == http.MethodDelete:
		rt.deleteCase(w, r, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) submitCase(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	c, err := rt.submitUC.Submit(r.Context(), identity, ports.SubmitInput{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Language: domain.ParseLanguage(r.FormValue("language")),
		Body:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCaseView(c))
}

func (rt *Router) listCases(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	filter := ports.CaseFilter{
		Status:      domain.CaseStatus(r.URL.Query().Get("status")),
		OldestFirst: r.URL.Query().Get("order") == "oldest",
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "list cases", fmt.Errorf("unknown status %q", filter.Status)))
		return
	}

	// Reviewers see the whole queue; everyone else sees their own cases.
	if identity.Role.CanReview() {
		filter.OwnerID = r.URL.Query().Get("owner")
	} else {
		filter.OwnerID = identity.ID
	}

	cases, err := rt.cases.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]caseView, 0, len(cases))
	for i := range cases {
		views = append(views, newCaseView(&cases[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": views})
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	c, err := rt.cases.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if c.OwnerID != identity.ID && !identity.Role.CanReview() {
		writeError(w, domain.WrapError(domain.ErrForbidden, "get case", fmt.Errorf("not the case owner")))
		return
	}
	writeJSON(w, http.StatusOK, newCaseView(c))
}

func (rt *Router) reviewCase(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	var req struct {
		ConfirmAI bool   `json:"confirmAi"`
		Diagnosis string `json:"diagnosis"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	input := ports.ReviewInput{ConfirmAI: req.ConfirmAI, Notes: req.Notes}
	if req.Diagnosis != "" {
		diagnosis, err := domain.ParseFractureType(req.Diagnosis)
		if err != nil {
			writeError(w, err)
			return
		}
		input.Diagnosis = diagnosis
	}

	c, err := rt.reviewUC.Review(r.Context(), identity, id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCaseView(c))
}

func (rt *Router) deleteCase(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	report, err := rt.deleteUC.Delete(r.Context(), identity, []string{id})
	if err != nil {
		writeError(w, err)
		return
	}
	if report.Failed > 0 {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "case could not be deleted"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) bulkDeleteCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no identity"})
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	report, err := rt.deleteUC.Delete(r.Context(), identity, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
