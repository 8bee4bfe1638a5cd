package store

import (
	"context"

	"msgboard/pkg/domain"
)

// MessageStore defines persistence operations for board messages.
// Implementations must be safe for concurrent use.
type MessageStore interface {
	// InsertMessage stores msg and returns the timestamp assigned by the store.
	InsertMessage(ctx context.Context, msg domain.PendingMessage) (int64, error)
	// QueryMessages returns messages matching r in ascending timestamp order.
	QueryMessages(ctx context.Context, r domain.TimeRange) ([]domain.Message, error)
	Ping(ctx context.Context) error
	Close() error
}
