package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/services/rbac"
)

// RoleHandler serves role registry and assignment endpoints.
type RoleHandler struct {
	registry    *rbac.RoleService
	assignments *rbac.AssignmentService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(registry *rbac.RoleService, assignments *rbac.AssignmentService) *RoleHandler {
	return &RoleHandler{registry: registry, assignments: assignments}
}

// ListRoles handles GET /v1/roles
func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.registry.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roles": roles,
		"count": len(roles),
	})
}

// GetRole handles GET /v1/roles/{id}
func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.registry.GetRole(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// CreateRole handles POST /v1/roles
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var role entities.Role
	if !decodeJSON(w, r, &role) {
		return
	}
	if role.ID == "" || role.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	if err := h.registry.CreateRole(r.Context(), &role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// UpdateRole handles PUT /v1/roles/{id}
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var role entities.Role
	if !decodeJSON(w, r, &role) {
		return
	}
	role.ID = mux.Vars(r)["id"]
	if err := h.registry.UpdateRole(r.Context(), &role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// DeleteRole handles DELETE /v1/roles/{id}
func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteRole(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RolePermissions handles GET /v1/roles/{id}/permissions.
// ?include_inherited=false limits the result to the role's own grants.
func (h *RoleHandler) RolePermissions(w http.ResponseWriter, r *http.Request) {
	includeInherited := r.URL.Query().Get("include_inherited") != "false"

	ids, err := h.registry.EffectivePermissions(r.Context(), mux.Vars(r)["id"], includeInherited)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"permission_ids":    ids,
		"include_inherited": includeInherited,
	})
}

// assignRequest is the body of POST /v1/assignments.
type assignRequest struct {
	ActorID    string                      `json:"actor_id"`
	RoleID     string                      `json:"role_id"`
	AssignedBy string                      `json:"assigned_by"`
	ExpiresAt  *time.Time                  `json:"expires_at,omitempty"`
	Context    *entities.AssignmentContext `json:"context,omitempty"`
	ApprovedBy string                      `json:"approved_by,omitempty"`
}

// Assign handles POST /v1/assignments
func (h *RoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ActorID == "" || req.RoleID == "" {
		writeError(w, http.StatusBadRequest, "actor_id and role_id are required")
		return
	}

	assignment, err := h.assignments.Assign(r.Context(), &rbac.AssignRequest{
		ActorID:    req.ActorID,
		RoleID:     req.RoleID,
		AssignedBy: req.AssignedBy,
		ExpiresAt:  req.ExpiresAt,
		Context:    req.Context,
		ApprovedBy: req.ApprovedBy,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// revokeRequest is the body of POST /v1/assignments/{id}/revoke.
type revokeRequest struct {
	RevokedBy string `json:"revoked_by"`
}

// Revoke handles POST /v1/assignments/{id}/revoke
func (h *RoleHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.assignments.Revoke(r.Context(), mux.Vars(r)["id"], req.RevokedBy); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActorAssignments handles GET /v1/actors/{id}/assignments
func (h *RoleHandler) ActorAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignments.EffectiveAssignments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// ActorPermissions handles GET /v1/actors/{id}/permissions
func (h *RoleHandler) ActorPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.assignments.EffectivePermissionsForActor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"permissions": permissions,
		"count":       len(permissions),
	})
}
