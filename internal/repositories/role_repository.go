package repositories

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// RoleRepository defines data access for roles.
type RoleRepository interface {
	// Get retrieves a role by id. Returns nil without error when the role
	// does not exist.
	Get(ctx context.Context, id string) (*entities.Role, error)

	// List returns every role.
	List(ctx context.Context) ([]*entities.Role, error)

	// Create stores a new role. Fails when the id is already taken.
	Create(ctx context.Context, role *entities.Role) error

	// Update replaces an existing role.
	Update(ctx context.Context, role *entities.Role) error

	// Delete removes a role permanently.
	Delete(ctx context.Context, id string) error
}
