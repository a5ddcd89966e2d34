package rbac

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// RiskScoreProvider contributes a behavioral risk score to a decision.
// The underlying model (device attestation, behavioral analytics, zero
// trust scoring) is an external collaborator; implementations must return
// a score in [0,1] where higher means riskier.
type RiskScoreProvider interface {
	Score(ctx context.Context, actorID string, ec *entities.EvaluationContext) (float64, error)
}

// AdditionalAuthScoreThreshold is the provider score at or above which a
// granted decision also signals requires_additional_auth.
const AdditionalAuthScoreThreshold = 0.8

// StaticRiskScoreProvider returns a fixed score. Useful as a default and
// in tests.
type StaticRiskScoreProvider struct {
	Value float64
}

// Score implements RiskScoreProvider.
func (p *StaticRiskScoreProvider) Score(ctx context.Context, actorID string, ec *entities.EvaluationContext) (float64, error) {
	return p.Value, nil
}
