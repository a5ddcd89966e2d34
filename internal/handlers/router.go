package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// HealthFunc reports whether the service's dependencies are reachable.
type HealthFunc func() error

// NewRouter wires every API endpoint onto a mux router.
func NewRouter(
	evaluate *EvaluateHandler,
	roles *RoleHandler,
	permissions *PermissionHandler,
	auditH *AuditHandler,
	health HealthFunc,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogging(logger))

	router.HandleFunc("/healthz", healthz(health)).Methods("GET")

	v1 := router.PathPrefix("/v1").Subrouter()

	// Decision endpoints
	v1.HandleFunc("/evaluate", evaluate.Evaluate).Methods("POST")
	v1.HandleFunc("/evaluate/bulk", evaluate.EvaluateBulk).Methods("POST")

	// Role registry
	v1.HandleFunc("/roles", roles.ListRoles).Methods("GET")
	v1.HandleFunc("/roles", roles.CreateRole).Methods("POST")
	v1.HandleFunc("/roles/{id}", roles.GetRole).Methods("GET")
	v1.HandleFunc("/roles/{id}", roles.UpdateRole).Methods("PUT")
	v1.HandleFunc("/roles/{id}", roles.DeleteRole).Methods("DELETE")
	v1.HandleFunc("/roles/{id}/permissions", roles.RolePermissions).Methods("GET")

	// Assignments
	v1.HandleFunc("/assignments", roles.Assign).Methods("POST")
	v1.HandleFunc("/assignments/{id}/revoke", roles.Revoke).Methods("POST")
	v1.HandleFunc("/actors/{id}/assignments", roles.ActorAssignments).Methods("GET")
	v1.HandleFunc("/actors/{id}/permissions", roles.ActorPermissions).Methods("GET")

	// Permission catalog
	v1.HandleFunc("/permissions", permissions.ListPermissions).Methods("GET")
	v1.HandleFunc("/permissions", permissions.CreatePermission).Methods("POST")
	v1.HandleFunc("/permissions/{id}", permissions.GetPermission).Methods("GET")

	// Audit log
	v1.HandleFunc("/audit/entries", auditH.ListEntries).Methods("GET")
	v1.HandleFunc("/audit/export", auditH.ExportEntries).Methods("GET")

	return router
}

func healthz(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogging(logger *logrus.Logger) mux.MiddlewareFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   recorder.status,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}
