package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/handlers"
	"github.com/polisgate/polisgate/internal/infrastructure/cache"
	"github.com/polisgate/polisgate/internal/repositories/memory"
	"github.com/polisgate/polisgate/internal/services/audit"
	"github.com/polisgate/polisgate/internal/services/rbac"
)

// E2ETestServer runs the full API stack over a real HTTP listener with
// in-memory repositories, so scenarios exercise routing, JSON codecs and
// the whole decision path without external services.
type E2ETestServer struct {
	Server      *httptest.Server
	Authorities *memory.AuthorityRepository
	AuditLog    audit.Log
}

// SetupE2ETest wires the stack and starts the test server.
func SetupE2ETest(t *testing.T) *E2ETestServer {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	roleRepo := memory.NewRoleRepository()
	permissionRepo := memory.NewPermissionRepository()
	assignmentRepo := memory.NewAssignmentRepository()
	authorityRepo := memory.NewAuthorityRepository()

	registry := rbac.NewRoleService(roleRepo, permissionRepo, assignmentRepo,
		cache.NewChainCache(128, time.Minute), logger)
	assignments := rbac.NewAssignmentService(assignmentRepo, permissionRepo, registry, logger)

	celEngine, err := rbac.NewCELEngine()
	if err != nil {
		t.Fatalf("failed to create CEL engine: %v", err)
	}
	conditions := rbac.NewConditionEvaluator(celEngine, logger)
	scopes := rbac.NewScopeResolver(nil)
	overlay := rbac.NewDomainValidator(authorityRepo, logger)
	auditLog := audit.NewMemoryLog(1000, nil, logger)

	engine := rbac.NewEngine(assignments, conditions, scopes, overlay, auditLog, logger)

	router := handlers.NewRouter(
		handlers.NewEvaluateHandler(engine),
		handlers.NewRoleHandler(registry, assignments),
		handlers.NewPermissionHandler(permissionRepo, celEngine),
		handlers.NewAuditHandler(auditLog),
		nil,
		logger,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &E2ETestServer{
		Server:      server,
		Authorities: authorityRepo,
		AuditLog:    auditLog,
	}
}

// PostJSON sends a JSON body and returns the status code and raw response.
func (s *E2ETestServer) PostJSON(t *testing.T, path string, body interface{}) (int, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	resp, err := http.Post(s.Server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp.StatusCode, out
}

// Get returns the status code and raw response of a GET request.
func (s *E2ETestServer) Get(t *testing.T, path string) (int, []byte) {
	t.Helper()

	resp, err := http.Get(s.Server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp.StatusCode, out
}

// MustPost fails the test unless the request returns the wanted status,
// then decodes the response into out (skipped when out is nil).
func (s *E2ETestServer) MustPost(t *testing.T, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()

	status, data := s.PostJSON(t, path, body)
	if status != wantStatus {
		t.Fatalf("POST %s: status = %d, want %d (body: %s)", path, status, wantStatus, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
}
