package entities

import (
	"testing"
)

func TestEvaluationContext_Resolve(t *testing.T) {
	ec := &EvaluationContext{
		ActorID:         "agent-1",
		ResourceOwnerID: "agent-1",
		Attributes: map[string]interface{}{
			"department": "underwriting",
			"nested":     map[string]interface{}{"key": "value"},
		},
		Claim: &ClaimContext{ClaimID: "clm-9", ClaimAmount: 25000, State: "TX"},
		Agent: &AgentContext{SupervisionStatus: "standard"},
	}

	tests := []struct {
		name      string
		path      string
		want      interface{}
		wantFound bool
	}{
		{"top-level fixed field", "actor_id", "agent-1", true},
		{"attribute field", "department", "underwriting", true},
		{"nested attribute", "nested.key", "value", true},
		{"claim amount", "claim.claim_amount", float64(25000), true},
		{"claim state", "claim.state", "TX", true},
		{"agent supervision", "agent.supervision_status", "standard", true},
		{"missing top-level", "policy.state", nil, false},
		{"missing leaf", "claim.adjuster", nil, false},
		{"path through scalar", "actor_id.sub", nil, false},
		{"empty path", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ec.Resolve(tt.path)
			if found != tt.wantFound {
				t.Fatalf("Resolve(%q) found = %v, want %v", tt.path, found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEvaluationContext_Resolve_AttributesDoNotShadowFixedKeys(t *testing.T) {
	ec := &EvaluationContext{
		ActorID:    "real-actor",
		Attributes: map[string]interface{}{"actor_id": "spoofed"},
	}

	got, found := ec.Resolve("actor_id")
	if !found || got != "real-actor" {
		t.Errorf("Resolve(actor_id) = %v, want real-actor", got)
	}
}

func TestEvaluationContext_MonetaryAmount(t *testing.T) {
	amount := 1200.0

	tests := []struct {
		name     string
		ctx      *EvaluationContext
		want     float64
		wantOK   bool
	}{
		{"explicit amount", &EvaluationContext{Amount: &amount}, 1200, true},
		{"claim amount", &EvaluationContext{Claim: &ClaimContext{ClaimAmount: 600000}}, 600000, true},
		{"policy premium", &EvaluationContext{Policy: &PolicyContext{Premium: 950}}, 950, true},
		{
			name:   "explicit amount wins over claim",
			ctx:    &EvaluationContext{Amount: &amount, Claim: &ClaimContext{ClaimAmount: 99999}},
			want:   1200,
			wantOK: true,
		},
		{"no amount anywhere", &EvaluationContext{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ctx.MonetaryAmount()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MonetaryAmount() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEvaluationContext_TerritoryState(t *testing.T) {
	tests := []struct {
		name   string
		ctx    *EvaluationContext
		want   string
		wantOK bool
	}{
		{"policy state", &EvaluationContext{Policy: &PolicyContext{State: "CA"}}, "CA", true},
		{"claim state", &EvaluationContext{Claim: &ClaimContext{State: "NY"}}, "NY", true},
		{
			name:   "policy wins over claim",
			ctx:    &EvaluationContext{Policy: &PolicyContext{State: "CA"}, Claim: &ClaimContext{State: "NY"}},
			want:   "CA",
			wantOK: true,
		},
		{
			name:   "state attribute",
			ctx:    &EvaluationContext{Attributes: map[string]interface{}{"state": "FL"}},
			want:   "FL",
			wantOK: true,
		},
		{"no state", &EvaluationContext{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ctx.TerritoryState()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("TerritoryState() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
