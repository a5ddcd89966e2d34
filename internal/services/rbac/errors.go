package rbac

import "errors"

// Configuration errors. These are reported to the administrative caller
// immediately and never degrade to a silent denial for unrelated actors.
var (
	// ErrRoleNotFound is returned when a referenced role id does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrCyclicInheritance is returned when a role create/update would make
	// the role its own ancestor.
	ErrCyclicInheritance = errors.New("cyclic role inheritance")

	// ErrUnknownPermission is returned when a role references a permission
	// id absent from the catalog.
	ErrUnknownPermission = errors.New("unknown permission id")

	// ErrRoleInUse is returned when deleting a role that still has
	// effective assignments.
	ErrRoleInUse = errors.New("role has active assignments")

	// ErrSystemRole is returned when deleting a system role.
	ErrSystemRole = errors.New("system roles cannot be deleted")

	// ErrAssignmentNotFound is returned when a referenced assignment id
	// does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
)
