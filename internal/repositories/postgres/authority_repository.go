package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/repositories"
)

// PostgresAuthorityRepository implements AuthorityRepository using PostgreSQL
type PostgresAuthorityRepository struct {
	db *sql.DB
}

// NewPostgresAuthorityRepository creates a new PostgreSQL authority repository
func NewPostgresAuthorityRepository(db *sql.DB) repositories.AuthorityRepository {
	return &PostgresAuthorityRepository{db: db}
}

// MonetaryAuthority returns the actor's monetary authority, or nil when
// none is configured.
func (r *PostgresAuthorityRepository) MonetaryAuthority(ctx context.Context, actorID string) (*entities.MonetaryAuthority, error) {
	query := `
		SELECT actor_id, transaction_limit, requires_dual_approval_above
		FROM monetary_authorities
		WHERE actor_id = $1
	`
	var authority entities.MonetaryAuthority
	err := r.db.QueryRowContext(ctx, query, actorID).Scan(
		&authority.ActorID,
		&authority.TransactionLimit,
		&authority.RequiresDualApprovalAbove,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monetary authority: %w", err)
	}
	return &authority, nil
}

// TerritoryAuthority returns the actor's territory authority, or nil when
// none is configured.
func (r *PostgresAuthorityRepository) TerritoryAuthority(ctx context.Context, actorID string) (*entities.TerritoryAuthority, error) {
	query := `
		SELECT actor_id, states
		FROM territory_authorities
		WHERE actor_id = $1
	`
	var authority entities.TerritoryAuthority
	err := r.db.QueryRowContext(ctx, query, actorID).Scan(
		&authority.ActorID,
		pq.Array(&authority.States),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get territory authority: %w", err)
	}
	return &authority, nil
}

// SetMonetaryAuthority upserts a monetary authority record.
func (r *PostgresAuthorityRepository) SetMonetaryAuthority(ctx context.Context, authority *entities.MonetaryAuthority) error {
	query := `
		INSERT INTO monetary_authorities (actor_id, transaction_limit, requires_dual_approval_above)
		VALUES ($1, $2, $3)
		ON CONFLICT (actor_id) DO UPDATE
		SET transaction_limit = EXCLUDED.transaction_limit,
			requires_dual_approval_above = EXCLUDED.requires_dual_approval_above
	`
	_, err := r.db.ExecContext(ctx, query,
		authority.ActorID,
		authority.TransactionLimit,
		authority.RequiresDualApprovalAbove,
	)
	if err != nil {
		return fmt.Errorf("failed to set monetary authority: %w", err)
	}
	return nil
}

// SetTerritoryAuthority upserts a territory authority record.
func (r *PostgresAuthorityRepository) SetTerritoryAuthority(ctx context.Context, authority *entities.TerritoryAuthority) error {
	query := `
		INSERT INTO territory_authorities (actor_id, states)
		VALUES ($1, $2)
		ON CONFLICT (actor_id) DO UPDATE
		SET states = EXCLUDED.states
	`
	_, err := r.db.ExecContext(ctx, query,
		authority.ActorID,
		pq.Array(authority.States),
	)
	if err != nil {
		return fmt.Errorf("failed to set territory authority: %w", err)
	}
	return nil
}
