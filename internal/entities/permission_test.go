package entities

import "testing"

func TestScope_Ordering(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Scope
		wider bool
	}{
		{"team wider than own", ScopeTeam, ScopeOwn, true},
		{"company wider than team", ScopeCompany, ScopeTeam, true},
		{"all wider than company", ScopeAll, ScopeCompany, true},
		{"own not wider than own", ScopeOwn, ScopeOwn, false},
		{"own not wider than all", ScopeOwn, ScopeAll, false},
		{"unknown scope never wider", Scope("global"), ScopeOwn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Wider(tt.b); got != tt.wider {
				t.Errorf("Wider(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.wider)
			}
		})
	}
}

func TestScope_Valid(t *testing.T) {
	for _, s := range []Scope{ScopeOwn, ScopeTeam, ScopeCompany, ScopeAll} {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false, want true", s)
		}
	}
	if Scope("everything").Valid() {
		t.Error("Valid(everything) = true, want false")
	}
}

func TestMaxRiskLevel(t *testing.T) {
	tests := []struct {
		name string
		a, b RiskLevel
		want RiskLevel
	}{
		{"low vs high", RiskLow, RiskHigh, RiskHigh},
		{"critical vs medium", RiskCritical, RiskMedium, RiskCritical},
		{"equal levels", RiskMedium, RiskMedium, RiskMedium},
		{"unknown loses", RiskLevel("extreme"), RiskLow, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxRiskLevel(tt.a, tt.b); got != tt.want {
				t.Errorf("MaxRiskLevel(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPermission_Matches(t *testing.T) {
	p := &Permission{ID: "quotes:read:own", Resource: "quotes", Action: "read", Scope: ScopeOwn}

	if !p.Matches("quotes", "read") {
		t.Error("Matches(quotes, read) = false, want true")
	}
	if p.Matches("quotes", "update") {
		t.Error("Matches(quotes, update) = true, want false")
	}
	if p.Matches("policies", "read") {
		t.Error("Matches(policies, read) = true, want false")
	}
}
