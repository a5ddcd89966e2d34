// Package memory provides in-memory repository implementations. They are
// the default fixture for tests and serve deployments where roles and
// permissions are seeded at startup from an external source of truth.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/polisgate/polisgate/internal/entities"
)

// PermissionRepository is an in-memory permission catalog keyed by id.
// Reads take a shared lock; the catalog is read-mostly reference data.
type PermissionRepository struct {
	mu          sync.RWMutex
	permissions map[string]*entities.Permission
	order       []string
}

// NewPermissionRepository creates an empty in-memory catalog.
func NewPermissionRepository() *PermissionRepository {
	return &PermissionRepository{
		permissions: make(map[string]*entities.Permission),
	}
}

// Seed registers a batch of permissions, failing on the first duplicate id.
func (r *PermissionRepository) Seed(ctx context.Context, permissions []*entities.Permission) error {
	for _, p := range permissions {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a permission by id.
func (r *PermissionRepository) Get(ctx context.Context, id string) (*entities.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.permissions[id], nil
}

// List returns all permissions in registration order.
func (r *PermissionRepository) List(ctx context.Context) ([]*entities.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Permission, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.permissions[id])
	}
	return out, nil
}

// Create registers a new permission.
func (r *PermissionRepository) Create(ctx context.Context, permission *entities.Permission) error {
	if permission.ID == "" {
		return fmt.Errorf("permission id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.permissions[permission.ID]; exists {
		return fmt.Errorf("permission %s already exists", permission.ID)
	}
	r.permissions[permission.ID] = permission
	r.order = append(r.order, permission.ID)
	return nil
}
