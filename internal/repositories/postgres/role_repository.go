package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// PostgresRoleRepository implements RoleRepository using PostgreSQL
type PostgresRoleRepository struct {
	db *sql.DB
}

// NewPostgresRoleRepository creates a new PostgreSQL role repository
func NewPostgresRoleRepository(db *sql.DB) repositories.RoleRepository {
	return &PostgresRoleRepository{db: db}
}

const roleColumns = `
	id, name, description, permission_ids, parent_role_id,
	is_system_role, category, level, created_at, updated_at
`

// Get retrieves a role by id. Returns nil without error when absent.
func (r *PostgresRoleRepository) Get(ctx context.Context, id string) (*entities.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	role, err := scanRole(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// List returns every role.
func (r *PostgresRoleRepository) List(ctx context.Context) ([]*entities.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*entities.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

// Create stores a new role.
func (r *PostgresRoleRepository) Create(ctx context.Context, role *entities.Role) error {
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	query := `
		INSERT INTO roles (` + roleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		pq.Array(role.PermissionIDs),
		nullableString(role.ParentRoleID),
		role.IsSystemRole,
		role.Category,
		role.Level,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// Update replaces an existing role.
func (r *PostgresRoleRepository) Update(ctx context.Context, role *entities.Role) error {
	role.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE roles
		SET name = $1, description = $2, permission_ids = $3, parent_role_id = $4,
			is_system_role = $5, category = $6, level = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		pq.Array(role.PermissionIDs),
		nullableString(role.ParentRoleID),
		role.IsSystemRole,
		role.Category,
		role.Level,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("role not found: %s", role.ID)
	}
	return nil
}

// Delete removes a role permanently.
func (r *PostgresRoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("role not found: %s", id)
	}
	return nil
}

func scanRole(row rowScanner) (*entities.Role, error) {
	var (
		role   entities.Role
		parent sql.NullString
	)
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		pq.Array(&role.PermissionIDs),
		&parent,
		&role.IsSystemRole,
		&role.Category,
		&role.Level,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		role.ParentRoleID = parent.String
	}
	return &role, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
