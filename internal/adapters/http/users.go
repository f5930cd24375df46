package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

type userView struct {
	domain.Identity
	DisplayName string `json:"displayName"`
}

func (rt *Router) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	identity, ok := identityFromContext(r.Context())
	if !ok || !identity.Role.CanManageIdentities() {
		writeError(w, domain.WrapError(domain.ErrForbidden, "list users", fmt.Errorf("admin role required")))
		return
	}

	users, err := rt.identities.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{Identity: u, DisplayName: domain.DisplayName(u.ID, u.Name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

// updateUserRole handles PATCH /v1/users/{id}/role.
func (rt *Router) updateUserRole(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "role" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	identity, ok := identityFromContext(r.Context())
	if !ok || !identity.Role.CanManageIdentities() {
		writeError(w, domain.WrapError(domain.ErrForbidden, "update role", fmt.Errorf("admin role required")))
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "update role", err))
		return
	}

	if err := rt.identities.UpdateRole(r.Context(), id, role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "role": string(role)})
}
