package entities

import "time"

// AuditEntry is the immutable record of one decision. Every evaluation,
// granted or denied, produces exactly one entry before the caller receives
// the result.
type AuditEntry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	Granted   bool      `json:"granted"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	EffectiveScope Scope     `json:"effective_scope,omitempty"`
	RiskLevel      RiskLevel `json:"risk_level,omitempty"`

	// Fault marks entries recorded for evaluations that failed with an
	// internal error rather than a normal deny.
	Fault bool `json:"fault,omitempty"`

	// Context is a copy of the evaluation context at decision time.
	Context map[string]interface{} `json:"context,omitempty"`
}

// AuditFilter selects audit entries for retrieval and export.
type AuditFilter struct {
	ActorID  string
	Resource string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Matches reports whether the entry satisfies the filter's actor, resource
// and time-range criteria (limit/offset are applied by the caller).
func (f *AuditFilter) Matches(e *AuditEntry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
