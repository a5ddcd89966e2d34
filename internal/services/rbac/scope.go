package rbac

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// MembershipResolver answers team and company membership questions for
// scope resolution. It is an optional collaborator: deployments without a
// membership service leave it nil.
type MembershipResolver interface {
	// IsTeamMember reports whether the actor and the resource owner share
	// a team.
	IsTeamMember(ctx context.Context, actorID, resourceOwnerID string) (bool, error)

	// IsCompanyMember reports whether the actor belongs to the company
	// owning the resource.
	IsCompanyMember(ctx context.Context, actorID, resourceOwnerID string) (bool, error)
}

// ScopeAggregationPolicy selects the effective scope of a decision from
// the satisfiable scopes of all contributing permissions. It is a named,
// injectable policy so the aggregation rule can be changed without
// touching the engine.
type ScopeAggregationPolicy func(scopes []entities.Scope) entities.Scope

// WidestWins returns the widest satisfiable scope. This is the historical
// behavior: a request matching both an own-scoped and a company-scoped
// permission is recorded at company scope.
func WidestWins(scopes []entities.Scope) entities.Scope {
	if len(scopes) == 0 {
		return ""
	}
	widest := scopes[0]
	for _, s := range scopes[1:] {
		if s.Wider(widest) {
			widest = s
		}
	}
	return widest
}

// MostRestrictive returns the narrowest satisfiable scope, the
// least-privilege alternative to WidestWins.
func MostRestrictive(scopes []entities.Scope) entities.Scope {
	if len(scopes) == 0 {
		return ""
	}
	narrowest := scopes[0]
	for _, s := range scopes[1:] {
		if narrowest.Wider(s) {
			narrowest = s
		}
	}
	return narrowest
}

// ScopeResolver determines whether a requested scope is satisfiable given
// the evaluation context.
type ScopeResolver struct {
	membership MembershipResolver
}

// NewScopeResolver creates a scope resolver. membership may be nil.
func NewScopeResolver(membership MembershipResolver) *ScopeResolver {
	return &ScopeResolver{membership: membership}
}

// Satisfiable reports whether the scope can be satisfied in this context.
//
// own requires the actor to be the resource owner. team and company
// delegate to the membership resolver when one is configured;
// TODO(membership): without a resolver they resolve to true, a widening
// the integrator must close by wiring a membership service.
func (r *ScopeResolver) Satisfiable(ctx context.Context, scope entities.Scope, ec *entities.EvaluationContext) (bool, error) {
	switch scope {
	case entities.ScopeOwn:
		return ec.ResourceOwnerID != "" && ec.ResourceOwnerID == ec.ActorID, nil
	case entities.ScopeTeam:
		if r.membership == nil {
			return true, nil
		}
		return r.membership.IsTeamMember(ctx, ec.ActorID, ec.ResourceOwnerID)
	case entities.ScopeCompany:
		if r.membership == nil {
			return true, nil
		}
		return r.membership.IsCompanyMember(ctx, ec.ActorID, ec.ResourceOwnerID)
	case entities.ScopeAll:
		return true, nil
	default:
		return false, nil
	}
}
