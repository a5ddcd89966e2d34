package handlers

import (
	"net/http"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/services/rbac"
)

// EvaluateHandler serves the decision endpoints.
type EvaluateHandler struct {
	engine *rbac.Engine
}

// NewEvaluateHandler creates a new EvaluateHandler
func NewEvaluateHandler(engine *rbac.Engine) *EvaluateHandler {
	return &EvaluateHandler{engine: engine}
}

// evaluateRequest is the body of POST /v1/evaluate.
type evaluateRequest struct {
	ActorID  string                      `json:"actor_id"`
	Resource string                      `json:"resource"`
	Action   string                      `json:"action"`
	Context  *entities.EvaluationContext `json:"context,omitempty"`
}

// Evaluate handles POST /v1/evaluate
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ActorID == "" || req.Resource == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "actor_id, resource and action are required")
		return
	}

	if req.Context == nil {
		req.Context = &entities.EvaluationContext{}
	}
	req.Context.IPAddress = clientIP(r)
	req.Context.UserAgent = r.UserAgent()

	decision, err := h.engine.Evaluate(r.Context(), req.ActorID, req.Resource, req.Action, req.Context)
	if err != nil {
		// The decision is still well-formed on an internal fault; surface it
		// with the error status so the caller can distinguish deny-by-policy
		// from deny-by-failure.
		writeJSON(w, http.StatusInternalServerError, decision)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// bulkEvaluateRequest is the body of POST /v1/evaluate/bulk.
type bulkEvaluateRequest struct {
	ActorID string                      `json:"actor_id"`
	Checks  []rbac.ResourceAction       `json:"checks"`
	Context *entities.EvaluationContext `json:"context,omitempty"`
}

// EvaluateBulk handles POST /v1/evaluate/bulk
func (h *EvaluateHandler) EvaluateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkEvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}
	if len(req.Checks) == 0 {
		writeError(w, http.StatusBadRequest, "at least one check is required")
		return
	}

	if req.Context == nil {
		req.Context = &entities.EvaluationContext{}
	}
	req.Context.IPAddress = clientIP(r)
	req.Context.UserAgent = r.UserAgent()

	results, err := h.engine.EvaluateBulk(r.Context(), req.ActorID, req.Checks, req.Context)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
