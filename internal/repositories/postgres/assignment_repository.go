package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// PostgresAssignmentRepository implements AssignmentRepository using
// PostgreSQL. Revocation is an update, never a delete: assignment history
// is retained for audit.
type PostgresAssignmentRepository struct {
	db *sql.DB
}

// NewPostgresAssignmentRepository creates a new PostgreSQL assignment repository
func NewPostgresAssignmentRepository(db *sql.DB) repositories.AssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

const assignmentColumns = `
	id, actor_id, role_id, assigned_by, assigned_at, expires_at,
	is_active, context, approved_by, revoked_at, revoked_by
`

// Get retrieves an assignment by id. Returns nil without error when absent.
func (r *PostgresAssignmentRepository) Get(ctx context.Context, id string) (*entities.RoleAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments WHERE id = $1`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

// ListByActor returns all assignments for an actor, oldest first.
func (r *PostgresAssignmentRepository) ListByActor(ctx context.Context, actorID string) ([]*entities.RoleAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments WHERE actor_id = $1 ORDER BY assigned_at`
	return r.list(ctx, query, actorID)
}

// ListByRole returns all assignments referencing a role, oldest first.
func (r *PostgresAssignmentRepository) ListByRole(ctx context.Context, roleID string) ([]*entities.RoleAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments WHERE role_id = $1 ORDER BY assigned_at`
	return r.list(ctx, query, roleID)
}

func (r *PostgresAssignmentRepository) list(ctx context.Context, query, arg string) ([]*entities.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entities.RoleAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

// Create stores a new assignment.
func (r *PostgresAssignmentRepository) Create(ctx context.Context, assignment *entities.RoleAssignment) error {
	contextJSON, err := marshalAssignmentContext(assignment.Context)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO role_assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.ActorID,
		assignment.RoleID,
		assignment.AssignedBy,
		assignment.AssignedAt,
		assignment.ExpiresAt,
		assignment.IsActive,
		contextJSON,
		assignment.ApprovedBy,
		assignment.RevokedAt,
		assignment.RevokedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// Update replaces an existing assignment.
func (r *PostgresAssignmentRepository) Update(ctx context.Context, assignment *entities.RoleAssignment) error {
	contextJSON, err := marshalAssignmentContext(assignment.Context)
	if err != nil {
		return err
	}

	query := `
		UPDATE role_assignments
		SET actor_id = $1, role_id = $2, assigned_by = $3, assigned_at = $4,
			expires_at = $5, is_active = $6, context = $7, approved_by = $8,
			revoked_at = $9, revoked_by = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		assignment.ActorID,
		assignment.RoleID,
		assignment.AssignedBy,
		assignment.AssignedAt,
		assignment.ExpiresAt,
		assignment.IsActive,
		contextJSON,
		assignment.ApprovedBy,
		assignment.RevokedAt,
		assignment.RevokedBy,
		assignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("assignment not found: %s", assignment.ID)
	}
	return nil
}

func scanAssignment(row rowScanner) (*entities.RoleAssignment, error) {
	var (
		assignment  entities.RoleAssignment
		contextJSON []byte
		expiresAt   sql.NullTime
		revokedAt   sql.NullTime
	)
	err := row.Scan(
		&assignment.ID,
		&assignment.ActorID,
		&assignment.RoleID,
		&assignment.AssignedBy,
		&assignment.AssignedAt,
		&expiresAt,
		&assignment.IsActive,
		&contextJSON,
		&assignment.ApprovedBy,
		&revokedAt,
		&assignment.RevokedBy,
	)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		assignment.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		assignment.RevokedAt = &revokedAt.Time
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &assignment.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assignment context: %w", err)
		}
	}
	return &assignment, nil
}

func marshalAssignmentContext(c *entities.AssignmentContext) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assignment context: %w", err)
	}
	return data, nil
}
