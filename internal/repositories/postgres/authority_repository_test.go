package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisgate/polisgate/internal/entities"
)

func TestPostgresAuthorityRepository_MonetaryAuthority(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAuthorityRepository(db)

	rows := sqlmock.NewRows([]string{"actor_id", "transaction_limit", "requires_dual_approval_above"}).
		AddRow("adjuster-1", 500000.0, 100000.0)
	mock.ExpectQuery("SELECT (.+) FROM monetary_authorities").
		WithArgs("adjuster-1").
		WillReturnRows(rows)

	authority, err := repo.MonetaryAuthority(context.Background(), "adjuster-1")
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.Equal(t, 500000.0, authority.TransactionLimit)
	assert.Equal(t, 100000.0, authority.RequiresDualApprovalAbove)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthorityRepository_MonetaryAuthorityNotConfigured(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAuthorityRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM monetary_authorities").
		WithArgs("stranger").
		WillReturnRows(sqlmock.NewRows([]string{"actor_id", "transaction_limit", "requires_dual_approval_above"}))

	authority, err := repo.MonetaryAuthority(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Nil(t, authority, "an unconfigured actor is nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthorityRepository_TerritoryAuthority(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAuthorityRepository(db)

	rows := sqlmock.NewRows([]string{"actor_id", "states"}).
		AddRow("agent-1", pq.Array([]string{"TX", "OK"}))
	mock.ExpectQuery("SELECT (.+) FROM territory_authorities").
		WithArgs("agent-1").
		WillReturnRows(rows)

	authority, err := repo.TerritoryAuthority(context.Background(), "agent-1")
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.True(t, authority.Covers("TX"))
	assert.False(t, authority.Covers("CA"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthorityRepository_SetMonetaryAuthority(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAuthorityRepository(db)
	mock.ExpectExec("INSERT INTO monetary_authorities").
		WithArgs("adjuster-1", 500000.0, 100000.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SetMonetaryAuthority(context.Background(), &entities.MonetaryAuthority{
		ActorID:                   "adjuster-1",
		TransactionLimit:          500000,
		RequiresDualApprovalAbove: 100000,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
