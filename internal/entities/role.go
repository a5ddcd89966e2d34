package entities

import "time"

// Role groups permissions under a named function within the organization.
// Roles form a single-parent inheritance chain: a role inherits every
// permission of its ancestors, additively. The chain must be acyclic;
// cycle checking is enforced by the role service at create/update time.
type Role struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	PermissionIDs []string `json:"permission_ids"`

	// ParentRoleID is the id of the single parent role, or empty for a
	// root role. Stored as an id, not a pointer, so the registry remains
	// trivially serializable.
	ParentRoleID string `json:"parent_role_id,omitempty"`

	// IsSystemRole marks roles that ship with the platform and cannot be
	// deleted.
	IsSystemRole bool `json:"is_system_role,omitempty"`

	// Category and Level are organizational metadata (e.g. "claims", 3).
	Category string `json:"category,omitempty"`
	Level    int    `json:"level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPermission reports whether the role directly carries the permission id
// (inherited permissions are resolved by the role service, not here).
func (r *Role) HasPermission(permissionID string) bool {
	for _, id := range r.PermissionIDs {
		if id == permissionID {
			return true
		}
	}
	return false
}
