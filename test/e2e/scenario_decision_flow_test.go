package e2e

import (
	"net/http"
	"testing"

	"github.com/polisgate/polisgate/internal/entities"
)

// Exercises the decision pipeline end to end: declarative and expression
// conditions, widest-wins scope aggregation across roles and the bulk
// endpoint.
func TestScenarioDecisionFlow(t *testing.T) {
	s := SetupE2ETest(t)

	// A conditional grant: endorsements may only be edited while the
	// policy is in draft, and only for small premiums.
	s.MustPost(t, "/v1/permissions", map[string]interface{}{
		"id": "edit_endorsement", "resource": "endorsements", "action": "update",
		"scope": "own", "risk_level": "low",
		"conditions": []map[string]interface{}{
			{"field": "policy.status", "operator": "equals", "value": "draft"},
			{"field": "policy.premium", "operator": "lt", "value": 10000},
		},
	}, http.StatusCreated, nil)

	// The same resource/action at team scope, unconditional, via a
	// second role. Widest scope must win when both match.
	s.MustPost(t, "/v1/permissions", map[string]interface{}{
		"id": "edit_endorsement_team", "resource": "endorsements", "action": "update",
		"scope": "team", "risk_level": "medium",
	}, http.StatusCreated, nil)

	s.MustPost(t, "/v1/roles", map[string]interface{}{
		"id": "endorsement-editor", "name": "Endorsement Editor",
		"permission_ids": []string{"edit_endorsement"},
	}, http.StatusCreated, nil)
	s.MustPost(t, "/v1/roles", map[string]interface{}{
		"id": "endorsement-lead", "name": "Endorsement Lead",
		"permission_ids": []string{"edit_endorsement_team"},
	}, http.StatusCreated, nil)

	for _, role := range []string{"endorsement-editor", "endorsement-lead"} {
		s.MustPost(t, "/v1/assignments", map[string]interface{}{
			"actor_id": "agent-5", "role_id": role, "assigned_by": "admin-1",
		}, http.StatusCreated, nil)
	}

	draftCtx := map[string]interface{}{
		"actor_id":          "agent-5",
		"resource_owner_id": "agent-5",
		"policy":            map[string]interface{}{"status": "draft", "premium": 2500.0},
	}

	var d entities.Decision
	s.MustPost(t, "/v1/evaluate", map[string]interface{}{
		"actor_id": "agent-5", "resource": "endorsements", "action": "update",
		"context": draftCtx,
	}, http.StatusOK, &d)
	if !d.Granted {
		t.Fatalf("draft edit denied: %q", d.Reason)
	}
	if d.EffectiveScope != entities.ScopeTeam {
		t.Errorf("effective scope = %q, want team (widest of own and team)", d.EffectiveScope)
	}
	if d.RiskLevel != entities.RiskMedium {
		t.Errorf("risk level = %q, want medium (max across matches)", d.RiskLevel)
	}

	// With the policy bound, only the unconditional team grant matches;
	// a non-team owner at own scope would be denied, but the team grant
	// still carries the request.
	boundCtx := map[string]interface{}{
		"actor_id":          "agent-5",
		"resource_owner_id": "agent-5",
		"policy":            map[string]interface{}{"status": "bound", "premium": 2500.0},
	}
	s.MustPost(t, "/v1/evaluate", map[string]interface{}{
		"actor_id": "agent-5", "resource": "endorsements", "action": "update",
		"context": boundCtx,
	}, http.StatusOK, &d)
	if !d.Granted {
		t.Fatalf("bound edit denied: %q", d.Reason)
	}
	if len(d.MatchedPermissionIDs) != 1 || d.MatchedPermissionIDs[0] != "edit_endorsement_team" {
		t.Errorf("matched = %v, want only the unconditional grant", d.MatchedPermissionIDs)
	}

	// Bulk evaluation returns one decision per resource:action pair.
	var bulk struct {
		Results map[string]*entities.Decision `json:"results"`
	}
	s.MustPost(t, "/v1/evaluate/bulk", map[string]interface{}{
		"actor_id": "agent-5",
		"checks": []map[string]string{
			{"resource": "endorsements", "action": "update"},
			{"resource": "policies", "action": "delete"},
		},
		"context": draftCtx,
	}, http.StatusOK, &bulk)
	if len(bulk.Results) != 2 {
		t.Fatalf("bulk results = %d, want 2", len(bulk.Results))
	}
	if !bulk.Results["endorsements:update"].Granted {
		t.Error("bulk endorsements:update denied")
	}
	if bulk.Results["policies:delete"].Granted {
		t.Error("bulk policies:delete granted without any permission")
	}
}
