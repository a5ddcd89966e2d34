package rbac

import (
	"context"
	"testing"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories/memory"
)

func grantedDecision() *entities.Decision {
	return &entities.Decision{
		Granted:        true,
		ConditionsMet:  true,
		EffectiveScope: entities.ScopeCompany,
		RiskLevel:      entities.RiskMedium,
		Outcome:        entities.OutcomeGranted,
	}
}

func TestActionVerbClassification(t *testing.T) {
	tests := []struct {
		action    string
		financial bool
		licensed  bool
	}{
		{"settle", true, true},
		{"settle_claim", true, true},
		{"transfer_funds", true, false},
		{"quote", false, true},
		{"read", false, false},
		{"update_notes", false, false},
	}

	for _, tt := range tests {
		if got := IsFinancialAction(tt.action); got != tt.financial {
			t.Errorf("IsFinancialAction(%s) = %v, want %v", tt.action, got, tt.financial)
		}
		if got := IsLicensedAction(tt.action); got != tt.licensed {
			t.Errorf("IsLicensedAction(%s) = %v, want %v", tt.action, got, tt.licensed)
		}
	}
}

func TestDomainValidator_NeverUpgradesDenial(t *testing.T) {
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())

	denied := &entities.Decision{Granted: false, Reason: entities.ReasonNoMatch, Outcome: entities.OutcomeNoMatch}
	failed := validator.Validate(context.Background(), "claims", "settle", &entities.EvaluationContext{ActorID: "a"}, denied)
	if failed != "" {
		t.Errorf("Validate(denied) failed check = %s, want none", failed)
	}
	if denied.Granted {
		t.Error("Validate() upgraded a denial to a grant")
	}
	if denied.Reason != entities.ReasonNoMatch {
		t.Errorf("Validate() rewrote denial reason to %q", denied.Reason)
	}
	if len(denied.DomainChecks) != 0 {
		t.Errorf("Validate(denied) recorded checks %v, want none", denied.DomainChecks)
	}
}

func TestDomainValidator_Monetary(t *testing.T) {
	ctx := context.Background()
	authorities := memory.NewAuthorityRepository()
	if err := authorities.SetMonetaryAuthority(ctx, &entities.MonetaryAuthority{
		ActorID:                   "adjuster-1",
		TransactionLimit:          500000,
		RequiresDualApprovalAbove: 100000,
	}); err != nil {
		t.Fatalf("SetMonetaryAuthority() error = %v", err)
	}
	validator := NewDomainValidator(authorities, testLogger())

	amount := func(v float64) *entities.EvaluationContext {
		return &entities.EvaluationContext{ActorID: "adjuster-1", Amount: &v}
	}

	tests := []struct {
		name       string
		ec         *entities.EvaluationContext
		wantCheck  entities.DomainCheck
		wantReason string
	}{
		{
			name:      "within limit and dual-approval band",
			ec:        amount(50000),
			wantCheck: "",
		},
		{
			name:       "above transaction limit",
			ec:         amount(600000),
			wantCheck:  entities.CheckMonetary,
			wantReason: "Amount 600000.00 exceeds transaction limit 500000.00",
		},
		{
			name:       "inside limit but above dual approval threshold",
			ec:         amount(250000),
			wantCheck:  entities.CheckMonetary,
			wantReason: "Amount 250000.00 requires dual approval above 100000.00",
		},
		{
			name: "no authority configured",
			ec: func() *entities.EvaluationContext {
				v := 10.0
				return &entities.EvaluationContext{ActorID: "stranger", Amount: &v}
			}(),
			wantCheck:  entities.CheckMonetary,
			wantReason: "No monetary authority configured for actor",
		},
		{
			name:      "no amount in context skips the check",
			ec:        &entities.EvaluationContext{ActorID: "stranger"},
			wantCheck: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := grantedDecision()
			failed := validator.Validate(ctx, "claims", "transfer_funds", tt.ec, decision)
			if failed != tt.wantCheck {
				t.Fatalf("Validate() failed check = %q, want %q", failed, tt.wantCheck)
			}
			if tt.wantCheck == "" {
				if !decision.Granted {
					t.Errorf("Validate() denied with reason %q, want grant", decision.Reason)
				}
				return
			}
			if decision.Granted {
				t.Error("Validate() left decision granted, want denial")
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("Validate() reason = %q, want %q", decision.Reason, tt.wantReason)
			}
			if decision.Outcome != entities.OutcomeOverlayDenied {
				t.Errorf("Validate() outcome = %s, want overlay denied", decision.Outcome)
			}
			if decision.DomainChecks[tt.wantCheck] {
				t.Errorf("Validate() recorded %s = true, want false", tt.wantCheck)
			}
		})
	}
}

func TestDomainValidator_MonetarySkipsNonFinancialActions(t *testing.T) {
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())
	v := 600000.0
	ec := &entities.EvaluationContext{ActorID: "reader", Amount: &v}

	decision := grantedDecision()
	if failed := validator.Validate(context.Background(), "claims", "read", ec, decision); failed != "" {
		t.Errorf("Validate(read) failed check = %s, want none", failed)
	}
	if !decision.Granted {
		t.Errorf("Validate(read) denied with reason %q, want grant", decision.Reason)
	}
}

func TestDomainValidator_Territory(t *testing.T) {
	ctx := context.Background()
	authorities := memory.NewAuthorityRepository()
	if err := authorities.SetTerritoryAuthority(ctx, &entities.TerritoryAuthority{
		ActorID: "agent-1",
		States:  []string{"TX", "OK"},
	}); err != nil {
		t.Fatalf("SetTerritoryAuthority() error = %v", err)
	}
	validator := NewDomainValidator(authorities, testLogger())

	tests := []struct {
		name       string
		actorID    string
		resource   string
		state      string
		wantDenied bool
		wantReason string
	}{
		{"covered state", "agent-1", "policies", "TX", false, ""},
		{"uncovered state", "agent-1", "policies", "CA", true, "Actor not authorized for territory CA"},
		{"unrestricted actor passes", "agent-2", "policies", "CA", false, ""},
		{"non-territorial resource skips check", "agent-1", "reports", "CA", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := &entities.EvaluationContext{
				ActorID: tt.actorID,
				Policy:  &entities.PolicyContext{State: tt.state},
			}
			decision := grantedDecision()
			validator.Validate(ctx, tt.resource, "read", ec, decision)
			if decision.Granted == tt.wantDenied {
				t.Fatalf("Validate() granted = %v, want denied = %v", decision.Granted, tt.wantDenied)
			}
			if tt.wantDenied && decision.Reason != tt.wantReason {
				t.Errorf("Validate() reason = %q, want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestDomainValidator_License(t *testing.T) {
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		agent      *entities.AgentContext
		wantDenied bool
	}{
		{"license on file", &entities.AgentContext{LicenseNumbers: []string{"TX-12345"}}, false},
		{"empty license list", &entities.AgentContext{}, true},
		{"no agent context", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := &entities.EvaluationContext{ActorID: "agent-1", Agent: tt.agent}
			decision := grantedDecision()
			validator.Validate(ctx, "quotes", "quote", ec, decision)
			if decision.Granted == tt.wantDenied {
				t.Fatalf("Validate() granted = %v, want denied = %v", decision.Granted, tt.wantDenied)
			}
			if tt.wantDenied && decision.Reason != "No license on file for licensed action" {
				t.Errorf("Validate() reason = %q", decision.Reason)
			}
		})
	}
}

func TestDomainValidator_Regulatory(t *testing.T) {
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		regulatory *entities.RegulatoryContext
		risk       entities.RiskLevel
		wantDenied bool
		wantReason string
	}{
		{"no regulatory context", nil, entities.RiskCritical, false, ""},
		{"clean record", &entities.RegulatoryContext{}, entities.RiskCritical, false, ""},
		{
			"active violation blocks everything",
			&entities.RegulatoryContext{ActiveViolation: true},
			entities.RiskLow,
			true,
			"Active regulatory violation on record",
		},
		{
			"audit in progress blocks high risk",
			&entities.RegulatoryContext{AuditInProgress: true},
			entities.RiskHigh,
			true,
			"High-risk action blocked while regulatory audit is in progress",
		},
		{
			"audit in progress permits medium risk",
			&entities.RegulatoryContext{AuditInProgress: true},
			entities.RiskMedium,
			false,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := &entities.EvaluationContext{ActorID: "agent-1", Regulatory: tt.regulatory}
			decision := grantedDecision()
			decision.RiskLevel = tt.risk
			validator.Validate(ctx, "policies", "read", ec, decision)
			if decision.Granted == tt.wantDenied {
				t.Fatalf("Validate() granted = %v, want denied = %v", decision.Granted, tt.wantDenied)
			}
			if tt.wantDenied && decision.Reason != tt.wantReason {
				t.Errorf("Validate() reason = %q, want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestDomainValidator_Supervision(t *testing.T) {
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())
	ctx := context.Background()

	restricted := &entities.EvaluationContext{
		ActorID: "agent-1",
		Agent:   &entities.AgentContext{SupervisionStatus: entities.SupervisionRestricted},
	}
	decision := grantedDecision()
	if failed := validator.Validate(ctx, "policies", "read", restricted, decision); failed != entities.CheckSupervision {
		t.Fatalf("Validate() failed check = %q, want supervision", failed)
	}
	if decision.Granted {
		t.Error("Validate() left restricted agent granted")
	}
	if decision.Reason != "Agent is under restricted supervision" {
		t.Errorf("Validate() reason = %q", decision.Reason)
	}

	standard := &entities.EvaluationContext{
		ActorID: "agent-1",
		Agent:   &entities.AgentContext{SupervisionStatus: "standard"},
	}
	decision = grantedDecision()
	validator.Validate(ctx, "policies", "read", standard, decision)
	if !decision.Granted {
		t.Errorf("Validate() denied standard-supervision agent: %q", decision.Reason)
	}
	if !decision.DomainChecks[entities.CheckSupervision] {
		t.Error("Validate() did not record supervision check as passed")
	}
}

func TestDomainValidator_FirstFailureSuppliesReason(t *testing.T) {
	// Both monetary and supervision fail; the monetary check runs first and
	// supplies the reason, but both results are reported.
	ctx := context.Background()
	validator := NewDomainValidator(memory.NewAuthorityRepository(), testLogger())

	v := 1000.0
	ec := &entities.EvaluationContext{
		ActorID: "agent-1",
		Amount:  &v,
		Agent:   &entities.AgentContext{LicenseNumbers: []string{"TX-1"}, SupervisionStatus: entities.SupervisionRestricted},
	}
	decision := grantedDecision()
	failed := validator.Validate(ctx, "claims", "settle_claim", ec, decision)
	if failed != entities.CheckMonetary {
		t.Fatalf("Validate() failed check = %q, want monetary", failed)
	}
	if decision.Reason != "No monetary authority configured for actor" {
		t.Errorf("Validate() reason = %q, want the monetary reason", decision.Reason)
	}
	if decision.DomainChecks[entities.CheckMonetary] {
		t.Error("monetary check recorded as passed")
	}
	if decision.DomainChecks[entities.CheckSupervision] {
		t.Error("supervision check recorded as passed")
	}
	if !decision.DomainChecks[entities.CheckLicense] {
		t.Error("license check not recorded as passed")
	}
}
