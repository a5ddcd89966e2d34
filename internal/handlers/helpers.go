package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/polisgate/polisgate/internal/services/rbac"
)

// === Shared helper functions for all handlers ===

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service sentinel errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrRoleNotFound), errors.Is(err, rbac.ErrAssignmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rbac.ErrCyclicInheritance), errors.Is(err, rbac.ErrUnknownPermission):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, rbac.ErrRoleInUse), errors.Is(err, rbac.ErrSystemRole):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
