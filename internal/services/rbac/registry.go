package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/infrastructure/cache"
	"github.com/polisgate/polisgate/internal/repositories"
)

// RoleService is the role registry: administrative create/update/delete
// with eager cycle checking, and effective-permission resolution along the
// single-parent inheritance chain.
type RoleService struct {
	roles       repositories.RoleRepository
	permissions repositories.PermissionRepository
	assignments repositories.AssignmentRepository
	chains      *cache.ChainCache
	logger      *logrus.Logger
}

// NewRoleService creates a role service. chains may be nil to disable
// resolution caching.
func NewRoleService(
	roles repositories.RoleRepository,
	permissions repositories.PermissionRepository,
	assignments repositories.AssignmentRepository,
	chains *cache.ChainCache,
	logger *logrus.Logger,
) *RoleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoleService{
		roles:       roles,
		permissions: permissions,
		assignments: assignments,
		chains:      chains,
		logger:      logger,
	}
}

// GetRole retrieves a role by id.
func (s *RoleService) GetRole(ctx context.Context, id string) (*entities.Role, error) {
	role, err := s.roles.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, id)
	}
	return role, nil
}

// ListRoles returns every role.
func (s *RoleService) ListRoles(ctx context.Context) ([]*entities.Role, error) {
	return s.roles.List(ctx)
}

// CreateRole validates and stores a new role. Validation covers the
// permission ids (must exist in the catalog), the parent role (must exist)
// and the parent chain (must stay acyclic).
func (s *RoleService) CreateRole(ctx context.Context, role *entities.Role) error {
	if role.ID == "" || role.Name == "" {
		return fmt.Errorf("role id and name are required")
	}
	if err := s.validateRole(ctx, role); err != nil {
		return err
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	s.invalidateChains()
	return nil
}

// UpdateRole validates and replaces an existing role.
func (s *RoleService) UpdateRole(ctx context.Context, role *entities.Role) error {
	existing, err := s.roles.Get(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("failed to get role: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role.ID)
	}
	if err := s.validateRole(ctx, role); err != nil {
		return err
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	s.invalidateChains()
	return nil
}

// DeleteRole removes a role. System roles are never deletable; other roles
// only when no effective assignment references them.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	role, err := s.roles.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, id)
	}
	if role.IsSystemRole {
		return fmt.Errorf("%w: %s", ErrSystemRole, id)
	}

	assignments, err := s.assignments.ListByRole(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list assignments for role: %w", err)
	}
	now := time.Now().UTC()
	for _, a := range assignments {
		if a.Effective(now) {
			return fmt.Errorf("%w: %s", ErrRoleInUse, id)
		}
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.invalidateChains()
	return nil
}

// EffectivePermissions returns the union of the role's own permission ids
// and, when includeInherited is set, those of every ancestor along the
// single-parent chain. Duplicate ids collapse; inheritance is additive
// only. A cycle encountered at resolution time fails closed: the result is
// an empty set and an integrity error is logged.
func (s *RoleService) EffectivePermissions(ctx context.Context, roleID string, includeInherited bool) ([]string, error) {
	if s.chains != nil {
		if ids, ok := s.chains.Get(roleID, includeInherited); ok {
			return ids, nil
		}
	}

	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
	}

	seen := make(map[string]bool)
	var ids []string
	appendUnique := func(permissionIDs []string) {
		for _, id := range permissionIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	appendUnique(role.PermissionIDs)

	if includeInherited {
		visited := map[string]bool{role.ID: true}
		current := role.ParentRoleID
		for current != "" {
			if visited[current] {
				s.logger.WithFields(logrus.Fields{
					"role_id":  roleID,
					"cycle_at": current,
				}).Error("cyclic role inheritance detected during resolution, failing closed")
				return []string{}, nil
			}
			visited[current] = true

			parent, err := s.roles.Get(ctx, current)
			if err != nil {
				return nil, fmt.Errorf("failed to get parent role %s: %w", current, err)
			}
			if parent == nil {
				s.logger.WithFields(logrus.Fields{
					"role_id":   roleID,
					"parent_id": current,
				}).Error("role references missing parent, stopping chain walk")
				break
			}
			appendUnique(parent.PermissionIDs)
			current = parent.ParentRoleID
		}
	}

	if ids == nil {
		ids = []string{}
	}
	if s.chains != nil {
		s.chains.Set(roleID, includeInherited, ids)
	}
	return ids, nil
}

// validateRole checks permission ids against the catalog, the parent role
// for existence, and the parent chain for cycles.
func (s *RoleService) validateRole(ctx context.Context, role *entities.Role) error {
	for _, pid := range role.PermissionIDs {
		p, err := s.permissions.Get(ctx, pid)
		if err != nil {
			return fmt.Errorf("failed to look up permission %s: %w", pid, err)
		}
		if p == nil {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, pid)
		}
	}

	if role.ParentRoleID == "" {
		return nil
	}
	if role.ParentRoleID == role.ID {
		return fmt.Errorf("%w: %s is its own parent", ErrCyclicInheritance, role.ID)
	}

	// Walk the prospective parent chain; reaching the role being saved (or
	// revisiting any role) means the update would close a cycle.
	visited := map[string]bool{role.ID: true}
	current := role.ParentRoleID
	for current != "" {
		if visited[current] {
			return fmt.Errorf("%w: %s would become its own ancestor", ErrCyclicInheritance, role.ID)
		}
		visited[current] = true

		parent, err := s.roles.Get(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to get parent role %s: %w", current, err)
		}
		if parent == nil {
			return fmt.Errorf("%w: parent %s", ErrRoleNotFound, current)
		}
		current = parent.ParentRoleID
	}
	return nil
}

func (s *RoleService) invalidateChains() {
	if s.chains != nil {
		s.chains.Invalidate()
	}
}
