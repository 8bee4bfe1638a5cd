package store

import (
	"context"
	"sync"
	"time"

	"msgboard/pkg/domain"
)

// MemoryStore keeps messages in-process. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []domain.Message // ascending by Timestamp
	last   int64
	now    func() time.Time
	closed bool
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// InsertMessage appends msg with a timestamp strictly greater than any
// previously assigned one.
func (m *MemoryStore) InsertMessage(ctx context.Context, msg domain.PendingMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrStoreClosed
	}
	ts := m.now().UnixMicro()
	if ts <= m.last {
		ts = m.last + 1
	}
	m.last = ts
	m.rows = append(m.rows, domain.Message{
		Username:  msg.Username,
		Message:   msg.Message,
		Timestamp: ts,
	})
	return ts, nil
}

// QueryMessages returns a copy of the rows inside r.
func (m *MemoryStore) QueryMessages(ctx context.Context, r domain.TimeRange) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	res := make([]domain.Message, 0, len(m.rows))
	for _, row := range m.rows {
		if r.Contains(row.Timestamp) {
			res = append(res, row)
		}
	}
	return res, nil
}

// Ping reports whether the store is still open.
func (m *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len returns the number of stored messages.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
