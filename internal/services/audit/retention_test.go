package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisgate/polisgate/internal/entities"
)

// stubPurgeableSink records the cutoff it was purged with.
type stubPurgeableSink struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubPurgeableSink) Write(ctx context.Context, entry *entities.AuditEntry) error {
	return nil
}

func (s *stubPurgeableSink) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestRetention_RunOnce(t *testing.T) {
	sink := &stubPurgeableSink{deleted: 7}
	retention := NewRetention(sink, 90*24*time.Hour, testLogger())

	before := time.Now().UTC().Add(-90 * 24 * time.Hour)
	deleted, err := retention.RunOnce(context.Background())
	after := time.Now().UTC().Add(-90 * 24 * time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.False(t, sink.cutoff.Before(before))
	assert.False(t, sink.cutoff.After(after))
}

func TestRetention_RunOnceError(t *testing.T) {
	sink := &stubPurgeableSink{err: errors.New("connection lost")}
	retention := NewRetention(sink, time.Hour, testLogger())

	_, err := retention.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRetention_StartRejectsInvalidSchedule(t *testing.T) {
	retention := NewRetention(&stubPurgeableSink{}, time.Hour, testLogger())
	assert.Error(t, retention.Start("not a cron spec"))
	retention.Stop()
}

func TestRetention_StartAndStop(t *testing.T) {
	retention := NewRetention(&stubPurgeableSink{}, time.Hour, testLogger())
	require.NoError(t, retention.Start("0 3 * * *"))
	retention.Stop()
}
