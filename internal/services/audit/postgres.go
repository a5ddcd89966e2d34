package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polisgate/polisgate/internal/entities"
)

// PostgresSink persists audit entries to PostgreSQL. It also supports
// filtered retrieval, so deployments can serve compliance exports from the
// durable store instead of the bounded buffer.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink creates a postgres-backed audit sink. The audit_entries
// table is created by migrations.
func NewPostgresSink(db *sql.DB) (*PostgresSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresSink{db: db}, nil
}

// Write inserts one audit entry.
func (s *PostgresSink) Write(ctx context.Context, entry *entities.AuditEntry) error {
	var contextJSON []byte
	if entry.Context != nil {
		var err error
		contextJSON, err = json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
	}

	query := `
		INSERT INTO audit_entries
			(id, actor_id, resource, action, granted, reason, effective_scope, risk_level, fault, context, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Resource,
		entry.Action,
		entry.Granted,
		entry.Reason,
		string(entry.EffectiveScope),
		string(entry.RiskLevel),
		entry.Fault,
		contextJSON,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Query returns entries matching the filter, oldest first.
func (s *PostgresSink) Query(ctx context.Context, filter *entities.AuditFilter) ([]*entities.AuditEntry, error) {
	if filter == nil {
		filter = &entities.AuditFilter{}
	}

	query := `
		SELECT id, actor_id, resource, action, granted, reason, effective_scope, risk_level, fault, context, timestamp
		FROM audit_entries
		WHERE 1=1
	`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActorID != "" {
		query += " AND actor_id = " + arg(filter.ActorID)
	}
	if filter.Resource != "" {
		query += " AND resource = " + arg(filter.Resource)
	}
	if filter.From != nil {
		query += " AND timestamp >= " + arg(*filter.From)
	}
	if filter.To != nil {
		query += " AND timestamp <= " + arg(*filter.To)
	}
	query += " ORDER BY timestamp ASC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.AuditEntry
	for rows.Next() {
		var (
			entry       entities.AuditEntry
			scope, risk string
			contextJSON []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Resource,
			&entry.Action,
			&entry.Granted,
			&entry.Reason,
			&scope,
			&risk,
			&entry.Fault,
			&contextJSON,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.EffectiveScope = entities.Scope(scope)
		entry.RiskLevel = entities.RiskLevel(risk)
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &entry.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal context: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// DeleteOlderThan removes entries older than cutoff, returning how many
// were deleted. Used by the retention job.
func (s *PostgresSink) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit entries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted entries: %w", err)
	}
	return deleted, nil
}
