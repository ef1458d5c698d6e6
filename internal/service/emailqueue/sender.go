package emailqueue

import (
	"context"
	"fmt"
	"log"

	"coldpress-backend/internal/domain"
)

// LogSender writes mail to the log instead of a delivery provider. It is the
// default wiring for environments without email credentials.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, entry domain.EmailQueueEntry) error {
	subject, err := SubjectFor(entry.EmailType)
	if err != nil {
		return err
	}
	s.logger.Printf("email to=%s subject=%q data=%v", entry.ToEmail, subject, entry.TemplateData)
	return nil
}

// SubjectFor maps a template type to its subject line. Unknown types are an
// error so a bad enqueue shows up in the retry log rather than sending an
// empty email.
func SubjectFor(emailType string) (string, error) {
	switch emailType {
	case domain.EmailOrderConfirmation:
		return "Your order is confirmed", nil
	case domain.EmailSubscriptionStarted:
		return "Your juice subscription has started", nil
	case domain.EmailRefundNotice:
		return "Your refund has been processed", nil
	default:
		return "", fmt.Errorf("unknown email type %q", emailType)
	}
}
