package entities

import (
	"strings"
	"time"
)

// PolicyContext carries policy-specific request data.
type PolicyContext struct {
	PolicyID    string  `json:"policy_id,omitempty"`
	ProductLine string  `json:"product_line,omitempty"`
	State       string  `json:"state,omitempty"`
	Premium     float64 `json:"premium,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ClaimContext carries claim-specific request data.
type ClaimContext struct {
	ClaimID     string  `json:"claim_id,omitempty"`
	ClaimAmount float64 `json:"claim_amount,omitempty"`
	State       string  `json:"state,omitempty"`
	Severity    string  `json:"severity,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// AgentContext carries the acting agent's licensing and supervision data.
type AgentContext struct {
	LicenseNumbers    []string `json:"license_numbers,omitempty"`
	LicensedStates    []string `json:"licensed_states,omitempty"`
	SupervisionStatus string   `json:"supervision_status,omitempty"`
}

// SupervisionRestricted is the AgentContext.SupervisionStatus value that
// denies all access regardless of other checks.
const SupervisionRestricted = "restricted"

// RegulatoryContext carries the actor's current regulatory standing.
type RegulatoryContext struct {
	ActiveViolation bool `json:"active_violation,omitempty"`
	AuditInProgress bool `json:"audit_in_progress,omitempty"`
}

// EvaluationContext is the transient input to a single decision. It is
// supplied per call and never persisted as part of the permission model;
// only the resulting audit entry keeps a copy.
type EvaluationContext struct {
	ActorID         string    `json:"actor_id,omitempty"`
	ResourceID      string    `json:"resource_id,omitempty"`
	ResourceOwnerID string    `json:"resource_owner_id,omitempty"`
	RequestTime     time.Time `json:"request_time,omitempty"`
	IPAddress       string    `json:"ip_address,omitempty"`
	UserAgent       string    `json:"user_agent,omitempty"`

	// Amount is the monetary amount of the requested operation, when the
	// caller supplies one explicitly (claim contexts carry their own).
	Amount *float64 `json:"amount,omitempty"`

	// Attributes holds arbitrary caller-supplied fields addressable by
	// condition field paths. Attributes never shadow the fixed keys.
	Attributes map[string]interface{} `json:"attributes,omitempty"`

	Policy     *PolicyContext     `json:"policy,omitempty"`
	Claim      *ClaimContext      `json:"claim,omitempty"`
	Agent      *AgentContext      `json:"agent,omitempty"`
	Regulatory *RegulatoryContext `json:"regulatory,omitempty"`
}

// MonetaryAmount returns the monetary amount relevant to the request:
// the explicit Amount if present, otherwise the claim amount, otherwise
// the policy premium. The second return is false when none is present.
func (c *EvaluationContext) MonetaryAmount() (float64, bool) {
	if c.Amount != nil {
		return *c.Amount, true
	}
	if c.Claim != nil && c.Claim.ClaimAmount > 0 {
		return c.Claim.ClaimAmount, true
	}
	if c.Policy != nil && c.Policy.Premium > 0 {
		return c.Policy.Premium, true
	}
	return 0, false
}

// TerritoryState returns the state/territory code the request concerns,
// preferring the policy context over the claim context over a free-form
// "state" attribute.
func (c *EvaluationContext) TerritoryState() (string, bool) {
	if c.Policy != nil && c.Policy.State != "" {
		return c.Policy.State, true
	}
	if c.Claim != nil && c.Claim.State != "" {
		return c.Claim.State, true
	}
	if s, ok := c.Attributes["state"].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

// AsMap flattens the context into the map form that condition field paths
// and CEL expressions resolve against. Fixed keys win over free-form
// attributes of the same name.
func (c *EvaluationContext) AsMap() map[string]interface{} {
	m := make(map[string]interface{}, len(c.Attributes)+10)
	for k, v := range c.Attributes {
		m[k] = v
	}
	if c.ActorID != "" {
		m["actor_id"] = c.ActorID
	}
	if c.ResourceID != "" {
		m["resource_id"] = c.ResourceID
	}
	if c.ResourceOwnerID != "" {
		m["resource_owner_id"] = c.ResourceOwnerID
	}
	if !c.RequestTime.IsZero() {
		m["request_time"] = c.RequestTime
	}
	if c.IPAddress != "" {
		m["ip_address"] = c.IPAddress
	}
	if c.UserAgent != "" {
		m["user_agent"] = c.UserAgent
	}
	if c.Amount != nil {
		m["amount"] = *c.Amount
	}
	if c.Policy != nil {
		m["policy"] = map[string]interface{}{
			"policy_id":    c.Policy.PolicyID,
			"product_line": c.Policy.ProductLine,
			"state":        c.Policy.State,
			"premium":      c.Policy.Premium,
			"status":       c.Policy.Status,
		}
	}
	if c.Claim != nil {
		m["claim"] = map[string]interface{}{
			"claim_id":     c.Claim.ClaimID,
			"claim_amount": c.Claim.ClaimAmount,
			"state":        c.Claim.State,
			"severity":     c.Claim.Severity,
			"status":       c.Claim.Status,
		}
	}
	if c.Agent != nil {
		m["agent"] = map[string]interface{}{
			"license_numbers":    toInterfaceSlice(c.Agent.LicenseNumbers),
			"licensed_states":    toInterfaceSlice(c.Agent.LicensedStates),
			"supervision_status": c.Agent.SupervisionStatus,
		}
	}
	if c.Regulatory != nil {
		m["regulatory"] = map[string]interface{}{
			"active_violation":  c.Regulatory.ActiveViolation,
			"audit_in_progress": c.Regulatory.AuditInProgress,
		}
	}
	return m
}

// Resolve walks a dot-separated field path against the flattened context.
// The second return is false when any path segment is missing or a
// non-final segment is not a map.
func (c *EvaluationContext) Resolve(path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var current interface{} = c.AsMap()
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
