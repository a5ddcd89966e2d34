package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// financialVerbs are the action verbs that trigger the monetary check.
var financialVerbs = map[string]bool{
	"settle":   true,
	"transfer": true,
	"approve":  true,
	"issue":    true,
	"price":    true,
	"reserve":  true,
	"bind":     true,
}

// licensedVerbs are the action verbs that require a license on file.
var licensedVerbs = map[string]bool{
	"bind":   true,
	"issue":  true,
	"quote":  true,
	"sell":   true,
	"advise": true,
	"settle": true,
}

// territorialResources are the resource types subject to the territory
// check when the context carries a state code.
var territorialResources = map[string]bool{
	"policies":     true,
	"claims":       true,
	"quotes":       true,
	"endorsements": true,
	"binders":      true,
}

// actionVerb extracts the leading verb of a compound action name, so
// "settle_claim" and "settle" both count as settling.
func actionVerb(action string) string {
	if i := strings.IndexByte(action, '_'); i > 0 {
		return action[:i]
	}
	return action
}

// IsFinancialAction reports whether the action moves money and is subject
// to the monetary authority check.
func IsFinancialAction(action string) bool {
	return financialVerbs[actionVerb(action)]
}

// IsLicensedAction reports whether the action requires a producer license.
func IsLicensedAction(action string) bool {
	return licensedVerbs[actionVerb(action)]
}

// DomainValidator layers insurance-specific checks on top of a base
// granted decision. It never upgrades a denial: when the base decision is
// denied it returns unchanged. Checks run in a fixed order (monetary,
// territory, license, regulatory, supervision); all applicable checks are
// evaluated and reported, and the first failure supplies the denial
// reason.
type DomainValidator struct {
	authorities repositories.AuthorityRepository
	logger      *logrus.Logger
}

// NewDomainValidator creates a domain validator.
func NewDomainValidator(authorities repositories.AuthorityRepository, logger *logrus.Logger) *DomainValidator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DomainValidator{authorities: authorities, logger: logger}
}

// Validate applies every applicable check to a base-granted decision,
// recording per-check results on the decision and downgrading it to denied
// on the first failure. It returns the name of the check that supplied the
// denial reason, or "" when every applicable check passed.
func (v *DomainValidator) Validate(
	ctx context.Context,
	resource, action string,
	ec *entities.EvaluationContext,
	decision *entities.Decision,
) entities.DomainCheck {
	if !decision.Granted {
		return ""
	}

	checks := make(map[entities.DomainCheck]bool)
	var failedReason string
	var failedCheck entities.DomainCheck
	fail := func(check entities.DomainCheck, reason string) {
		checks[check] = false
		if failedReason == "" {
			failedReason = reason
			failedCheck = check
		}
	}

	// Monetary authority.
	if amount, ok := ec.MonetaryAmount(); ok && IsFinancialAction(action) {
		if reason := v.checkMonetary(ctx, ec.ActorID, amount); reason != "" {
			fail(entities.CheckMonetary, reason)
		} else {
			checks[entities.CheckMonetary] = true
		}
	}

	// Territory.
	if state, ok := ec.TerritoryState(); ok && territorialResources[resource] {
		if reason := v.checkTerritory(ctx, ec.ActorID, state); reason != "" {
			fail(entities.CheckTerritory, reason)
		} else {
			checks[entities.CheckTerritory] = true
		}
	}

	// License presence. Validity verification is an external collaborator;
	// this check only demands that a license identifier is on file.
	if IsLicensedAction(action) {
		if !hasLicense(ec) {
			fail(entities.CheckLicense, "No license on file for licensed action")
		} else {
			checks[entities.CheckLicense] = true
		}
	}

	// Regulatory compliance always runs.
	if reason := checkRegulatory(ec, decision.RiskLevel); reason != "" {
		fail(entities.CheckRegulatory, reason)
	} else {
		checks[entities.CheckRegulatory] = true
	}

	// Supervision.
	if ec.Agent != nil && ec.Agent.SupervisionStatus == entities.SupervisionRestricted {
		fail(entities.CheckSupervision, "Agent is under restricted supervision")
	} else if ec.Agent != nil {
		checks[entities.CheckSupervision] = true
	}

	decision.DomainChecks = checks
	if failedReason != "" {
		decision.Deny(failedReason)
		decision.Outcome = entities.OutcomeOverlayDenied
		v.logger.WithFields(logrus.Fields{
			"actor_id": ec.ActorID,
			"resource": resource,
			"action":   action,
			"check":    failedCheck,
			"reason":   failedReason,
		}).Info("domain validation denied base-granted decision")
	}
	return failedCheck
}

// checkMonetary returns a denial reason, or "" when the check passes.
func (v *DomainValidator) checkMonetary(ctx context.Context, actorID string, amount float64) string {
	authority, err := v.authorities.MonetaryAuthority(ctx, actorID)
	if err != nil {
		v.logger.WithError(err).WithField("actor_id", actorID).Error("monetary authority lookup failed")
		return "Monetary authority could not be verified"
	}
	if authority == nil {
		return "No monetary authority configured for actor"
	}
	if amount > authority.TransactionLimit {
		return fmt.Sprintf("Amount %.2f exceeds transaction limit %.2f", amount, authority.TransactionLimit)
	}
	if authority.RequiresDualApprovalAbove > 0 && amount > authority.RequiresDualApprovalAbove {
		return fmt.Sprintf("Amount %.2f requires dual approval above %.2f", amount, authority.RequiresDualApprovalAbove)
	}
	return ""
}

// checkTerritory returns a denial reason, or "" when the check passes.
// An actor without a configured territory authority is unrestricted.
func (v *DomainValidator) checkTerritory(ctx context.Context, actorID, state string) string {
	authority, err := v.authorities.TerritoryAuthority(ctx, actorID)
	if err != nil {
		v.logger.WithError(err).WithField("actor_id", actorID).Error("territory authority lookup failed")
		return "Territory authority could not be verified"
	}
	if authority == nil {
		return ""
	}
	if !authority.Covers(state) {
		return fmt.Sprintf("Actor not authorized for territory %s", state)
	}
	return ""
}

func checkRegulatory(ec *entities.EvaluationContext, risk entities.RiskLevel) string {
	if ec.Regulatory == nil {
		return ""
	}
	if ec.Regulatory.ActiveViolation {
		return "Active regulatory violation on record"
	}
	if ec.Regulatory.AuditInProgress && risk.Rank() >= entities.RiskHigh.Rank() {
		return "High-risk action blocked while regulatory audit is in progress"
	}
	return ""
}

func hasLicense(ec *entities.EvaluationContext) bool {
	if ec.Agent == nil {
		return false
	}
	for _, license := range ec.Agent.LicenseNumbers {
		if license != "" {
			return true
		}
	}
	return false
}
