// Package audit implements the append-only decision audit log: a bounded
// in-memory buffer with optional durable sinks, filtered retrieval, export
// and retention.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/entities"
)

// Sink is a durable destination for audit entries. Writes happen
// synchronously during Append, before the in-memory buffer is allowed to
// evict anything.
type Sink interface {
	Write(ctx context.Context, entry *entities.AuditEntry) error
}

// PurgeableSink is a sink that supports retention cleanup.
type PurgeableSink interface {
	Sink
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Log is the append-only audit log consumed by the decision engine and the
// compliance export API. Entries are immutable after append.
type Log interface {
	Append(ctx context.Context, entry *entities.AuditEntry) error
	Query(ctx context.Context, filter *entities.AuditFilter) ([]*entities.AuditEntry, error)
}

// MemoryLog is a bounded FIFO audit buffer. Once maxEntries is exceeded the
// oldest entry is evicted — but only after it has been durably recorded,
// when a sink is configured: Append writes to the sink before accepting the
// entry, so nothing is ever silently dropped.
type MemoryLog struct {
	mu         sync.RWMutex
	entries    []*entities.AuditEntry
	maxEntries int
	sink       Sink
	evictions  uint64
	onEvict    func()
	logger     *logrus.Logger
}

// DefaultMaxEntries bounds the in-memory buffer when no explicit limit is
// configured.
const DefaultMaxEntries = 10000

// NewMemoryLog creates a bounded in-memory audit log. sink may be nil.
func NewMemoryLog(maxEntries int, sink Sink, logger *logrus.Logger) *MemoryLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MemoryLog{
		maxEntries: maxEntries,
		sink:       sink,
		logger:     logger,
	}
}

// Append records one entry. The entry gets an id and timestamp if the
// caller left them empty. A sink failure fails the append: the decision
// path treats a lost audit entry as a correctness violation, so the error
// propagates instead of being swallowed.
func (l *MemoryLog) Append(ctx context.Context, entry *entities.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if l.sink != nil {
		if err := l.sink.Write(ctx, entry); err != nil {
			return fmt.Errorf("audit sink write failed: %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	for len(l.entries) > l.maxEntries {
		// FIFO eviction; the entry was already durably recorded above if a
		// sink is configured.
		l.entries = l.entries[1:]
		l.evictions++
		if l.onEvict != nil {
			l.onEvict()
		}
	}
	return nil
}

// SetEvictionObserver installs a per-eviction callback, typically a
// metrics counter. Must be called before the log starts serving requests.
func (l *MemoryLog) SetEvictionObserver(onEvict func()) {
	l.onEvict = onEvict
}

// Query returns entries matching the filter, oldest first, honoring the
// filter's offset and limit.
func (l *MemoryLog) Query(ctx context.Context, filter *entities.AuditFilter) ([]*entities.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if filter == nil {
		filter = &entities.AuditFilter{}
	}

	var matched []*entities.AuditEntry
	for _, e := range l.entries {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*entities.AuditEntry{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	// Copies keep stored entries immutable from the caller's perspective.
	// The context map is copied deeply so callers cannot reach the stored
	// entry through shared nested maps.
	out := make([]*entities.AuditEntry, len(matched))
	for i, e := range matched {
		copied := *e
		copied.Context = copyContext(e.Context)
		out[i] = &copied
	}
	return out, nil
}

func copyContext(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyContextValue(v)
	}
	return out
}

func copyContextValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyContext(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyContextValue(item)
		}
		return out
	default:
		return v
	}
}

// Len returns the number of buffered entries.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Evictions returns how many entries FIFO eviction has dropped from the
// buffer since startup.
func (l *MemoryLog) Evictions() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evictions
}
