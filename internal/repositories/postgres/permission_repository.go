package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// PostgresPermissionRepository implements PermissionRepository using PostgreSQL
type PostgresPermissionRepository struct {
	db *sql.DB
}

// NewPostgresPermissionRepository creates a new PostgreSQL permission repository
func NewPostgresPermissionRepository(db *sql.DB) repositories.PermissionRepository {
	return &PostgresPermissionRepository{db: db}
}

const permissionColumns = `
	id, resource, action, scope, conditions, risk_level,
	compliance_related, audit_mandatory, monetary_limit,
	required_licenses, allowed_states, product_lines, requires_dual_approval
`

// Get retrieves a permission by id. Returns nil without error when absent.
func (r *PostgresPermissionRepository) Get(ctx context.Context, id string) (*entities.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`

	permission, err := scanPermission(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return permission, nil
}

// List returns every registered permission.
func (r *PostgresPermissionRepository) List(ctx context.Context) ([]*entities.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var permissions []*entities.Permission
	for rows.Next() {
		permission, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}
	return permissions, nil
}

// Create registers a new permission.
func (r *PostgresPermissionRepository) Create(ctx context.Context, permission *entities.Permission) error {
	conditionsJSON, err := marshalConditions(permission.Conditions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.ExecContext(ctx, query,
		permission.ID,
		permission.Resource,
		permission.Action,
		string(permission.Scope),
		conditionsJSON,
		string(permission.RiskLevel),
		permission.ComplianceRelated,
		permission.AuditMandatory,
		permission.MonetaryLimit,
		pq.Array(permission.RequiredLicenses),
		pq.Array(permission.AllowedStates),
		pq.Array(permission.ProductLines),
		permission.RequiresDualApproval,
	)
	if err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPermission(row rowScanner) (*entities.Permission, error) {
	var (
		permission     entities.Permission
		scope, risk    string
		conditionsJSON []byte
	)
	err := row.Scan(
		&permission.ID,
		&permission.Resource,
		&permission.Action,
		&scope,
		&conditionsJSON,
		&risk,
		&permission.ComplianceRelated,
		&permission.AuditMandatory,
		&permission.MonetaryLimit,
		pq.Array(&permission.RequiredLicenses),
		pq.Array(&permission.AllowedStates),
		pq.Array(&permission.ProductLines),
		&permission.RequiresDualApproval,
	)
	if err != nil {
		return nil, err
	}
	permission.Scope = entities.Scope(scope)
	permission.RiskLevel = entities.RiskLevel(risk)
	if len(conditionsJSON) > 0 {
		if err := json.Unmarshal(conditionsJSON, &permission.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
	}
	return &permission, nil
}

func marshalConditions(conditions []*entities.Condition) ([]byte, error) {
	if len(conditions) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	return data, nil
}
