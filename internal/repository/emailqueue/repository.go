package emailqueue

import (
	"context"

	"coldpress-backend/internal/domain"
)

type EnqueueInput struct {
	ToEmail      string
	EmailType    string
	TemplateData map[string]interface{}
}

type Repository interface {
	Enqueue(ctx context.Context, in EnqueueInput) (*domain.EmailQueueEntry, error)
	// ListPending returns unsent entries that still have retries left,
	// oldest first, capped at limit.
	ListPending(ctx context.Context, limit int) ([]domain.EmailQueueEntry, error)
	MarkSent(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id, errorMessage string) error
	// HasEntryForOrder reports whether any queue entry, sent or not,
	// references the order. Lets webhook replays repair a lost enqueue
	// without ever queueing a second confirmation.
	HasEntryForOrder(ctx context.Context, orderID string) (bool, error)
}
