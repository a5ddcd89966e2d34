package entities

// Scope defines the breadth of resource instances a permission covers.
// Scopes form a strict total order: own < team < company < all.
type Scope string

const (
	ScopeOwn     Scope = "own"
	ScopeTeam    Scope = "team"
	ScopeCompany Scope = "company"
	ScopeAll     Scope = "all"
)

// scopeRanks maps each scope to its position in the widening order.
var scopeRanks = map[Scope]int{
	ScopeOwn:     0,
	ScopeTeam:    1,
	ScopeCompany: 2,
	ScopeAll:     3,
}

// Rank returns the scope's position in the widening order (own=0 .. all=3).
// Unknown scopes rank below own so they never win aggregation.
func (s Scope) Rank() int {
	if r, ok := scopeRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether the scope is one of the four defined scopes.
func (s Scope) Valid() bool {
	_, ok := scopeRanks[s]
	return ok
}

// Wider reports whether s covers strictly more instances than other.
func (s Scope) Wider(other Scope) bool {
	return s.Rank() > other.Rank()
}

// RiskLevel classifies the inherent risk of exercising a permission.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRanks = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the risk level's position in the escalation order (low=0 .. critical=3).
func (l RiskLevel) Rank() int {
	if r, ok := riskRanks[l]; ok {
		return r
	}
	return -1
}

// Valid reports whether the risk level is one of the four defined levels.
func (l RiskLevel) Valid() bool {
	_, ok := riskRanks[l]
	return ok
}

// MaxRiskLevel returns the higher of two risk levels.
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ConditionOperator identifies a comparison performed by a Condition.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "gt"
	OperatorLessThan    ConditionOperator = "lt"
	OperatorIn          ConditionOperator = "in"
	OperatorNotIn       ConditionOperator = "not_in"
	// OperatorExpression evaluates Value as a CEL expression against the
	// full evaluation context; Field is ignored.
	OperatorExpression ConditionOperator = "expression"
)

// Condition is a declarative predicate narrowing when a permission applies.
// Field is a dot-separated path resolved against the evaluation context
// (e.g. "claim.claim_amount").
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    interface{}       `json:"value"`
}

// Permission represents a single grantable capability on a resource type.
// Permissions are immutable once registered in the catalog.
type Permission struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Scope    Scope  `json:"scope"`

	// Conditions all must pass for the permission to contribute to a grant.
	// An empty list means the permission is unconditionally eligible.
	Conditions []*Condition `json:"conditions,omitempty"`

	// Risk metadata.
	RiskLevel            RiskLevel `json:"risk_level"`
	ComplianceRelated    bool      `json:"compliance_related,omitempty"`
	AuditMandatory       bool      `json:"audit_mandatory,omitempty"`
	MonetaryLimit        *float64  `json:"monetary_limit,omitempty"`
	RequiredLicenses     []string  `json:"required_licenses,omitempty"`
	AllowedStates        []string  `json:"allowed_states,omitempty"`
	ProductLines         []string  `json:"product_lines,omitempty"`
	RequiresDualApproval bool      `json:"requires_dual_approval,omitempty"`
}

// Matches reports whether the permission targets the given resource and action.
func (p *Permission) Matches(resource, action string) bool {
	return p.Resource == resource && p.Action == action
}

// Conditional reports whether the permission carries any conditions.
func (p *Permission) Conditional() bool {
	return len(p.Conditions) > 0
}
