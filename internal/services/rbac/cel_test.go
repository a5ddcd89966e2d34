package rbac

import (
	"testing"

	"github.com/polisgate/polisgate/internal/entities"
)

func TestCELEngine_Evaluate(t *testing.T) {
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatalf("NewCELEngine() error = %v", err)
	}

	ec := &entities.EvaluationContext{
		ActorID:         "agent-1",
		ResourceOwnerID: "agent-1",
		Agent:           &entities.AgentContext{SupervisionStatus: "standard"},
		Attributes:      map[string]interface{}{"channel": "web"},
	}

	tests := []struct {
		name       string
		expression string
		want       bool
		wantError  bool
	}{
		{"owner equality", `actor.id == resource.owner_id`, true, false},
		{"agent field", `actor.agent.supervision_status == "standard"`, true, false},
		{"request attribute", `request.channel in ["web", "mobile"]`, true, false},
		{"false result", `actor.id == "someone-else"`, false, false},
		{"non-boolean result", `actor.id`, false, true},
		{"compile error", `&&&`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(tt.expression, ec)
			if (err != nil) != tt.wantError {
				t.Fatalf("Evaluate(%q) error = %v, wantError %v", tt.expression, err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expression, got, tt.want)
			}
		})
	}
}

func TestCELEngine_ValidateExpression(t *testing.T) {
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatalf("NewCELEngine() error = %v", err)
	}

	if err := engine.ValidateExpression(`actor.id == "x"`); err != nil {
		t.Errorf("ValidateExpression(boolean expr) error = %v", err)
	}
	if err := engine.ValidateExpression(`actor.id`); err == nil {
		t.Error("ValidateExpression(non-boolean expr) error = nil, want error")
	}
	if err := engine.ValidateExpression(`&&&`); err == nil {
		t.Error("ValidateExpression(invalid expr) error = nil, want error")
	}
}
