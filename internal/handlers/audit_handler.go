package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/services/audit"
)

// AuditHandler serves the audit retrieval and compliance export endpoints.
type AuditHandler struct {
	log audit.Log
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(log audit.Log) *AuditHandler {
	return &AuditHandler{log: log}
}

// ListEntries handles GET /v1/audit/entries
func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.log.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// ExportEntries handles GET /v1/audit/export
func (h *AuditHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := audit.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = audit.ExportFormatJSON
	}

	entries, err := h.log.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := audit.Export(entries, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format {
	case audit.ExportFormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-entries.csv")
	case audit.ExportFormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-entries.ndjson")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-entries.json")
	}
	_, _ = w.Write(data)
}

func parseAuditFilter(r *http.Request) (*entities.AuditFilter, error) {
	q := r.URL.Query()
	filter := &entities.AuditFilter{
		ActorID:  q.Get("actor_id"),
		Resource: q.Get("resource"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		filter.Offset = n
	}
	return filter, nil
}
