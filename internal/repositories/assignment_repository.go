package repositories

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// AssignmentRepository defines data access for role assignments.
// Assignments are never deleted: revocation updates the record in place so
// history survives for audit.
type AssignmentRepository interface {
	// Get retrieves an assignment by id. Returns nil without error when it
	// does not exist.
	Get(ctx context.Context, id string) (*entities.RoleAssignment, error)

	// ListByActor returns all assignments (effective or not) for an actor.
	ListByActor(ctx context.Context, actorID string) ([]*entities.RoleAssignment, error)

	// ListByRole returns all assignments referencing a role.
	ListByRole(ctx context.Context, roleID string) ([]*entities.RoleAssignment, error)

	// Create stores a new assignment.
	Create(ctx context.Context, assignment *entities.RoleAssignment) error

	// Update replaces an existing assignment (used for revocation).
	Update(ctx context.Context, assignment *entities.RoleAssignment) error
}
