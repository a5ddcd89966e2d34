package entities

// DecisionOutcome labels the terminal state the decision engine reached.
type DecisionOutcome string

const (
	OutcomeNoMatch          DecisionOutcome = "no_match"
	OutcomeConditionsFailed DecisionOutcome = "conditions_failed"
	OutcomeScopeDenied      DecisionOutcome = "scope_denied"
	OutcomeGranted          DecisionOutcome = "granted"
	OutcomeOverlayDenied    DecisionOutcome = "overlay_denied"
	OutcomeError            DecisionOutcome = "error"
)

// Denial reasons surfaced to callers. These strings are part of the
// external contract and must not change.
const (
	ReasonNoMatch          = "Permission not granted"
	ReasonConditionsNotMet = "Conditions not met"
	ReasonInternalError    = "internal evaluation error"
)

// DomainCheck names an insurance-specific validation applied after a base
// RBAC grant.
type DomainCheck string

const (
	CheckMonetary    DomainCheck = "monetary"
	CheckTerritory   DomainCheck = "territory"
	CheckLicense     DomainCheck = "license"
	CheckRegulatory  DomainCheck = "regulatory"
	CheckSupervision DomainCheck = "supervision"
)

// Decision is the structured result of one permission evaluation.
type Decision struct {
	Granted       bool   `json:"granted"`
	Reason        string `json:"reason,omitempty"`
	ConditionsMet bool   `json:"conditions_met"`

	EffectiveScope Scope     `json:"effective_scope,omitempty"`
	RiskLevel      RiskLevel `json:"risk_level,omitempty"`

	// RequiresAdditionalAuth signals the caller to demand step-up
	// authentication; it is advisory, not an automatic denial.
	RequiresAdditionalAuth bool `json:"requires_additional_auth,omitempty"`

	// RiskScore is the [0,1] contribution of the injected risk score
	// provider, when one is configured.
	RiskScore *float64 `json:"risk_score,omitempty"`

	// DomainChecks reports the pass/fail result of every overlay check
	// that applied to this request. Absent keys did not apply.
	DomainChecks map[DomainCheck]bool `json:"domain_checks,omitempty"`

	// MatchedPermissionIDs lists the permissions that contributed to a
	// grant, for observability.
	MatchedPermissionIDs []string `json:"matched_permission_ids,omitempty"`

	Outcome DecisionOutcome `json:"outcome,omitempty"`
}

// Deny marks the decision denied with the given reason, preserving any
// already-recorded check results.
func (d *Decision) Deny(reason string) {
	d.Granted = false
	d.Reason = reason
}
