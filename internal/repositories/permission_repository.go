package repositories

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// PermissionRepository defines read/register access to the permission
// catalog. The catalog is rarely-mutated reference data administered
// outside the decision path.
type PermissionRepository interface {
	// Get retrieves a permission by id. Returns nil without error when the
	// permission does not exist.
	Get(ctx context.Context, id string) (*entities.Permission, error)

	// List returns every registered permission.
	List(ctx context.Context) ([]*entities.Permission, error)

	// Create registers a new permission. Fails when the id is already taken.
	Create(ctx context.Context, permission *entities.Permission) error
}
