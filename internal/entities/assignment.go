package entities

import "time"

// AssignmentContext carries optional metadata about why and where a role
// assignment applies.
type AssignmentContext struct {
	Department               string `json:"department,omitempty"`
	Location                 string `json:"location,omitempty"`
	TemporaryElevationReason string `json:"temporary_elevation_reason,omitempty"`
}

// RoleAssignment binds one actor to one role, optionally time-bounded.
// Assignments are never physically deleted: revocation flips IsActive to
// false so the record remains available for audit.
type RoleAssignment struct {
	ID         string     `json:"id"`
	ActorID    string     `json:"actor_id"`
	RoleID     string     `json:"role_id"`
	AssignedBy string     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"is_active"`

	Context    *AssignmentContext `json:"context,omitempty"`
	ApprovedBy string             `json:"approved_by,omitempty"`
	RevokedAt  *time.Time         `json:"revoked_at,omitempty"`
	RevokedBy  string             `json:"revoked_by,omitempty"`
}

// Effective reports whether the assignment contributes permissions at the
// given instant: it must be active and either unexpiring or not yet expired.
func (a *RoleAssignment) Effective(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return true
}
