package emailqueue

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"coldpress-backend/internal/domain"
)

type stubQueue struct {
	entries []domain.EmailQueueEntry
	listErr error

	sent        []string
	failures    map[string]string
	markSentErr error
}

func newStubQueue(entries ...domain.EmailQueueEntry) *stubQueue {
	return &stubQueue{entries: entries, failures: map[string]string{}}
}

func (s *stubQueue) ListPending(_ context.Context, limit int) ([]domain.EmailQueueEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubQueue) MarkSent(_ context.Context, id string) error {
	if s.markSentErr != nil {
		return s.markSentErr
	}
	s.sent = append(s.sent, id)
	return nil
}

func (s *stubQueue) RecordFailure(_ context.Context, id, errorMessage string) error {
	s.failures[id] = errorMessage
	return nil
}

type stubSender struct {
	failIDs map[string]bool
	sent    []string
}

func (s *stubSender) Send(_ context.Context, entry domain.EmailQueueEntry) error {
	if s.failIDs[entry.ID] {
		return errors.New("smtp timeout")
	}
	s.sent = append(s.sent, entry.ID)
	return nil
}

func entry(id, emailType string) domain.EmailQueueEntry {
	return domain.EmailQueueEntry{ID: id, ToEmail: "ada@example.com", EmailType: emailType}
}

func TestDrainSendsBatch(t *testing.T) {
	queue := newStubQueue(
		entry("e1", domain.EmailOrderConfirmation),
		entry("e2", domain.EmailSubscriptionStarted),
	)
	sender := &stubSender{}
	d := NewDrainer(queue, sender, 10, nil)

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Processed != 2 || result.Successful != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(queue.sent) != 2 {
		t.Errorf("sent entries not marked: %+v", queue.sent)
	}
}

func TestDrainRecordsFailuresAndContinues(t *testing.T) {
	queue := newStubQueue(
		entry("e1", domain.EmailOrderConfirmation),
		entry("e2", domain.EmailOrderConfirmation),
		entry("e3", domain.EmailOrderConfirmation),
	)
	sender := &stubSender{failIDs: map[string]bool{"e2": true}}
	d := NewDrainer(queue, sender, 10, nil)

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Processed != 3 || result.Successful != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if queue.failures["e2"] != "smtp timeout" {
		t.Errorf("failure not recorded: %+v", queue.failures)
	}
	if len(queue.sent) != 2 {
		t.Errorf("the failing entry must not be marked sent: %+v", queue.sent)
	}
}

func TestDrainRespectsBatchSize(t *testing.T) {
	queue := newStubQueue(
		entry("e1", domain.EmailOrderConfirmation),
		entry("e2", domain.EmailOrderConfirmation),
		entry("e3", domain.EmailOrderConfirmation),
	)
	d := NewDrainer(queue, &stubSender{}, 2, nil)

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("want batch of 2, got %+v", result)
	}
}

func TestDrainListErrorPropagates(t *testing.T) {
	queue := newStubQueue()
	queue.listErr = errors.New("db down")
	d := NewDrainer(queue, &stubSender{}, 10, nil)

	if _, err := d.Drain(context.Background()); err == nil {
		t.Fatal("want list error to propagate")
	}
}

func TestDrainMarkSentFailureCountsAsFailed(t *testing.T) {
	queue := newStubQueue(entry("e1", domain.EmailOrderConfirmation))
	queue.markSentErr = errors.New("db down")
	d := NewDrainer(queue, &stubSender{}, 10, nil)

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Successful != 0 || result.Failed != 1 {
		t.Fatalf("a mail sent but not marked must count failed, got %+v", result)
	}
}

func TestSubjectFor(t *testing.T) {
	for _, emailType := range []string{domain.EmailOrderConfirmation, domain.EmailSubscriptionStarted, domain.EmailRefundNotice} {
		subject, err := SubjectFor(emailType)
		if err != nil || subject == "" {
			t.Errorf("SubjectFor(%s) = %q, %v", emailType, subject, err)
		}
	}
	if _, err := SubjectFor("newsletter"); err == nil {
		t.Error("unknown email type must error")
	}
}

func TestLogSenderRejectsUnknownType(t *testing.T) {
	sender := NewLogSender(log.New(io.Discard, "", 0))
	d := NewDrainer(newStubQueue(entry("e1", "newsletter")), sender, 10, nil)
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("unknown type should fail the entry, got %+v", result)
	}
}
