package entities

// MonetaryAuthority is an actor's configured ceiling for financial actions.
// Amounts above RequiresDualApprovalAbove but within TransactionLimit are
// denied pending a second approver rather than hard-denied.
type MonetaryAuthority struct {
	ActorID                   string  `json:"actor_id"`
	TransactionLimit          float64 `json:"transaction_limit"`
	RequiresDualApprovalAbove float64 `json:"requires_dual_approval_above,omitempty"`
}

// TerritoryAuthority lists the states an actor is authorized to operate in.
type TerritoryAuthority struct {
	ActorID string   `json:"actor_id"`
	States  []string `json:"states"`
}

// Covers reports whether the authority includes the given state code.
func (t *TerritoryAuthority) Covers(state string) bool {
	for _, s := range t.States {
		if s == state {
			return true
		}
	}
	return false
}
