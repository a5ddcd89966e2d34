package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
	"github.com/polisgate/polisgate/internal/services/rbac"
)

// PermissionHandler serves the permission catalog endpoints.
type PermissionHandler struct {
	catalog repositories.PermissionRepository
	cel     *rbac.CELEngine
}

// NewPermissionHandler creates a new PermissionHandler. cel may be nil, in
// which case expression conditions are accepted unvalidated.
func NewPermissionHandler(catalog repositories.PermissionRepository, cel *rbac.CELEngine) *PermissionHandler {
	return &PermissionHandler{catalog: catalog, cel: cel}
}

// ListPermissions handles GET /v1/permissions
func (h *PermissionHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"permissions": permissions,
		"count":       len(permissions),
	})
}

// GetPermission handles GET /v1/permissions/{id}
func (h *PermissionHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	permission, err := h.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if permission == nil {
		writeError(w, http.StatusNotFound, "permission not found")
		return
	}
	writeJSON(w, http.StatusOK, permission)
}

// CreatePermission handles POST /v1/permissions
func (h *PermissionHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var permission entities.Permission
	if !decodeJSON(w, r, &permission) {
		return
	}
	if permission.ID == "" || permission.Resource == "" || permission.Action == "" {
		writeError(w, http.StatusBadRequest, "id, resource and action are required")
		return
	}
	if !permission.Scope.Valid() {
		writeError(w, http.StatusBadRequest, "invalid scope: "+string(permission.Scope))
		return
	}

	// Expression conditions are compiled up front so a typo surfaces at
	// registration time, not as a silent denial at evaluation time.
	if h.cel != nil {
		for _, condition := range permission.Conditions {
			if condition.Operator != entities.OperatorExpression {
				continue
			}
			expression, ok := condition.Value.(string)
			if !ok {
				writeError(w, http.StatusBadRequest, "expression condition value must be a string")
				return
			}
			if err := h.cel.ValidateExpression(expression); err != nil {
				writeError(w, http.StatusBadRequest, "invalid condition expression: "+err.Error())
				return
			}
		}
	}

	if err := h.catalog.Create(r.Context(), &permission); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, permission)
}
