package rbac

import (
	"context"
	"testing"

	"github.com/polisgate/polisgate/internal/entities"
)

// mockMembershipResolver answers membership questions from fixed sets.
type mockMembershipResolver struct {
	team    bool
	company bool
}

func (m *mockMembershipResolver) IsTeamMember(ctx context.Context, actorID, resourceOwnerID string) (bool, error) {
	return m.team, nil
}

func (m *mockMembershipResolver) IsCompanyMember(ctx context.Context, actorID, resourceOwnerID string) (bool, error) {
	return m.company, nil
}

func TestScopeResolver_Satisfiable(t *testing.T) {
	ctx := context.Background()

	own := &entities.EvaluationContext{ActorID: "agent-1", ResourceOwnerID: "agent-1"}
	other := &entities.EvaluationContext{ActorID: "agent-1", ResourceOwnerID: "agent-2"}
	noOwner := &entities.EvaluationContext{ActorID: "agent-1"}

	tests := []struct {
		name       string
		membership MembershipResolver
		scope      entities.Scope
		ec         *entities.EvaluationContext
		want       bool
	}{
		{"own with matching owner", nil, entities.ScopeOwn, own, true},
		{"own with different owner", nil, entities.ScopeOwn, other, false},
		{"own with no owner in context", nil, entities.ScopeOwn, noOwner, false},
		{"team without membership service resolves true", nil, entities.ScopeTeam, other, true},
		{"company without membership service resolves true", nil, entities.ScopeCompany, other, true},
		{"team with membership service denying", &mockMembershipResolver{team: false}, entities.ScopeTeam, other, false},
		{"team with membership service allowing", &mockMembershipResolver{team: true}, entities.ScopeTeam, other, true},
		{"company with membership service denying", &mockMembershipResolver{company: false}, entities.ScopeCompany, other, false},
		{"all always satisfiable", nil, entities.ScopeAll, other, true},
		{"unknown scope never satisfiable", nil, entities.Scope("galaxy"), own, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewScopeResolver(tt.membership)
			got, err := resolver.Satisfiable(ctx, tt.scope, tt.ec)
			if err != nil {
				t.Fatalf("Satisfiable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Satisfiable(%s) = %v, want %v", tt.scope, got, tt.want)
			}
		})
	}
}

func TestScopeAggregationPolicies(t *testing.T) {
	scopes := []entities.Scope{entities.ScopeOwn, entities.ScopeCompany, entities.ScopeTeam}

	if got := WidestWins(scopes); got != entities.ScopeCompany {
		t.Errorf("WidestWins() = %s, want company", got)
	}
	if got := MostRestrictive(scopes); got != entities.ScopeOwn {
		t.Errorf("MostRestrictive() = %s, want own", got)
	}
	if got := WidestWins(nil); got != "" {
		t.Errorf("WidestWins(nil) = %s, want empty", got)
	}
	if got := MostRestrictive(nil); got != "" {
		t.Errorf("MostRestrictive(nil) = %s, want empty", got)
	}
}
