package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// AssignmentService manages actor-to-role bindings and resolves an actor's
// effective permission set across all currently-effective assignments.
type AssignmentService struct {
	assignments repositories.AssignmentRepository
	permissions repositories.PermissionRepository
	registry    *RoleService
	logger      *logrus.Logger

	// now is swapped in tests to pin assignment effectiveness.
	now func() time.Time
}

// NewAssignmentService creates an assignment service.
func NewAssignmentService(
	assignments repositories.AssignmentRepository,
	permissions repositories.PermissionRepository,
	registry *RoleService,
	logger *logrus.Logger,
) *AssignmentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AssignmentService{
		assignments: assignments,
		permissions: permissions,
		registry:    registry,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AssignRequest carries the parameters for binding an actor to a role.
type AssignRequest struct {
	ActorID    string
	RoleID     string
	AssignedBy string
	ExpiresAt  *time.Time
	Context    *entities.AssignmentContext
	ApprovedBy string
}

// Assign binds an actor to a role. The role must exist.
func (s *AssignmentService) Assign(ctx context.Context, req *AssignRequest) (*entities.RoleAssignment, error) {
	if req.ActorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if _, err := s.registry.GetRole(ctx, req.RoleID); err != nil {
		return nil, err
	}

	assignment := &entities.RoleAssignment{
		ID:         uuid.NewString(),
		ActorID:    req.ActorID,
		RoleID:     req.RoleID,
		AssignedBy: req.AssignedBy,
		AssignedAt: s.now(),
		ExpiresAt:  req.ExpiresAt,
		IsActive:   true,
		Context:    req.Context,
		ApprovedBy: req.ApprovedBy,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignment.ID,
		"actor_id":      req.ActorID,
		"role_id":       req.RoleID,
		"assigned_by":   req.AssignedBy,
	}).Info("role assigned")
	return assignment, nil
}

// Revoke deactivates an assignment. The record is retained for audit; a
// revocation is visible to every evaluation that starts after Revoke
// returns.
func (s *AssignmentService) Revoke(ctx context.Context, assignmentID, revokedBy string) error {
	assignment, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return fmt.Errorf("%w: %s", ErrAssignmentNotFound, assignmentID)
	}
	if !assignment.IsActive {
		return nil
	}

	now := s.now()
	assignment.IsActive = false
	assignment.RevokedAt = &now
	assignment.RevokedBy = revokedBy
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to revoke assignment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"actor_id":      assignment.ActorID,
		"revoked_by":    revokedBy,
	}).Info("role assignment revoked")
	return nil
}

// EffectiveAssignments returns the actor's assignments that currently
// contribute permissions.
func (s *AssignmentService) EffectiveAssignments(ctx context.Context, actorID string) ([]*entities.RoleAssignment, error) {
	all, err := s.assignments.ListByActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	now := s.now()
	effective := make([]*entities.RoleAssignment, 0, len(all))
	for _, a := range all {
		if a.Effective(now) {
			effective = append(effective, a)
		}
	}
	return effective, nil
}

// EffectivePermissionsForActor resolves the actor's full permission set:
// the union, across every effective assignment, of each role's inherited
// permission chain. Permission ids missing from the catalog are logged as
// integrity errors and skipped rather than failing the whole evaluation.
func (s *AssignmentService) EffectivePermissionsForActor(ctx context.Context, actorID string) ([]*entities.Permission, error) {
	assignments, err := s.EffectiveAssignments(ctx, actorID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var permissions []*entities.Permission
	for _, a := range assignments {
		ids, err := s.registry.EffectivePermissions(ctx, a.RoleID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role %s: %w", a.RoleID, err)
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			permission, err := s.permissions.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to look up permission %s: %w", id, err)
			}
			if permission == nil {
				s.logger.WithFields(logrus.Fields{
					"permission_id": id,
					"role_id":       a.RoleID,
				}).Error("role references permission missing from catalog, skipping")
				continue
			}
			permissions = append(permissions, permission)
		}
	}
	return permissions, nil
}
