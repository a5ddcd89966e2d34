package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisgate/polisgate/internal/entities"
)

func TestPostgresSink_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewPostgresSink(db)
	require.NoError(t, err)

	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	entry := &entities.AuditEntry{
		ID: "e1", ActorID: "agent-1", Resource: "quotes", Action: "read",
		Granted: true, EffectiveScope: entities.ScopeOwn,
		RiskLevel: entities.RiskLow, Timestamp: ts,
		Context: map[string]interface{}{"actor_id": "agent-1"},
	}

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs("e1", "agent-1", "quotes", "read", true, "", "own", "low", false,
			[]byte(`{"actor_id":"agent-1"}`), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, sink.Write(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewPostgresSink(db)
	require.NoError(t, err)

	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "actor_id", "resource", "action", "granted", "reason",
		"effective_scope", "risk_level", "fault", "context", "timestamp",
	}).AddRow("e1", "agent-1", "quotes", "read", true, "", "own", "low", false, []byte(`{"k":"v"}`), ts)

	mock.ExpectQuery("SELECT (.+) FROM audit_entries").
		WithArgs("agent-1", 10).
		WillReturnRows(rows)

	entries, err := sink.Query(context.Background(), &entities.AuditFilter{ActorID: "agent-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, entities.ScopeOwn, entries[0].EffectiveScope)
	assert.Equal(t, "v", entries[0].Context["k"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewPostgresSink(db)
	require.NoError(t, err)

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM audit_entries").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := sink.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresSink_RequiresDB(t *testing.T) {
	_, err := NewPostgresSink(nil)
	assert.Error(t, err)
}
