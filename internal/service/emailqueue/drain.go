// Package emailqueue drains the durable email outbox. The drain is a
// run-to-completion job, not a long-running worker: it processes one bounded
// batch and exits. Entries that exhaust their retries stay in the table
// unsent so an operator can inspect them.
package emailqueue

import (
	"context"
	"io"
	"log"

	"coldpress-backend/internal/domain"
	"github.com/google/uuid"
)

// Sender delivers one queued email. Implementations dispatch on the entry's
// template type.
type Sender interface {
	Send(ctx context.Context, entry domain.EmailQueueEntry) error
}

type queueStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.EmailQueueEntry, error)
	MarkSent(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id, errorMessage string) error
}

type Drainer struct {
	queue     queueStore
	sender    Sender
	batchSize int
	logger    *log.Logger
}

func NewDrainer(queue queueStore, sender Sender, batchSize int, logger *log.Logger) *Drainer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Drainer{queue: queue, sender: sender, batchSize: batchSize, logger: logger}
}

// Result reports one drain run.
type Result struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Drain sends one batch of pending entries, oldest first. A send failure
// increments the entry's retry count and records the error; the entry stays
// eligible until it hits the retry ceiling.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	// Overlapping cron triggers produce interleaved log lines; the run id keeps
	// them separable.
	runID := uuid.NewString()[:8]

	entries, err := d.queue.ListPending(ctx, d.batchSize)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, entry := range entries {
		result.Processed++
		if err := d.sender.Send(ctx, entry); err != nil {
			result.Failed++
			d.logger.Printf("emailqueue[%s]: send %s (%s) failed attempt %d: %v", runID, entry.ID, entry.EmailType, entry.RetryCount+1, err)
			if recErr := d.queue.RecordFailure(ctx, entry.ID, err.Error()); recErr != nil {
				d.logger.Printf("emailqueue[%s]: record failure for %s: %v", runID, entry.ID, recErr)
			}
			continue
		}
		if err := d.queue.MarkSent(ctx, entry.ID); err != nil {
			// The mail went out but the row is still pending; the next drain
			// will resend. At-least-once is the contract here.
			d.logger.Printf("emailqueue[%s]: mark sent %s: %v", runID, entry.ID, err)
			result.Failed++
			continue
		}
		result.Successful++
	}

	d.logger.Printf("emailqueue[%s]: drained processed=%d successful=%d failed=%d", runID, result.Processed, result.Successful, result.Failed)
	return result, nil
}
