package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/polisgate/polisgate/internal/entities"
)

// RoleRepository is an in-memory role store keyed by id.
type RoleRepository struct {
	mu    sync.RWMutex
	roles map[string]*entities.Role
	order []string
}

// NewRoleRepository creates an empty in-memory role store.
func NewRoleRepository() *RoleRepository {
	return &RoleRepository{
		roles: make(map[string]*entities.Role),
	}
}

// Get retrieves a role by id.
func (r *RoleRepository) Get(ctx context.Context, id string) (*entities.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, nil
	}
	copied := *role
	return &copied, nil
}

// List returns all roles in creation order.
func (r *RoleRepository) List(ctx context.Context) ([]*entities.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Role, 0, len(r.order))
	for _, id := range r.order {
		copied := *r.roles[id]
		out = append(out, &copied)
	}
	return out, nil
}

// Create stores a new role.
func (r *RoleRepository) Create(ctx context.Context, role *entities.Role) error {
	if role.ID == "" {
		return fmt.Errorf("role id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.roles[role.ID]; exists {
		return fmt.Errorf("role %s already exists", role.ID)
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	copied := *role
	r.roles[role.ID] = &copied
	r.order = append(r.order, role.ID)
	return nil
}

// Update replaces an existing role.
func (r *RoleRepository) Update(ctx context.Context, role *entities.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.roles[role.ID]
	if !ok {
		return fmt.Errorf("role %s not found", role.ID)
	}
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = time.Now().UTC()
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

// Delete removes a role permanently.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return fmt.Errorf("role %s not found", id)
	}
	delete(r.roles, id)
	for i, rid := range r.order {
		if rid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
