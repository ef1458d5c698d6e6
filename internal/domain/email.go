package domain

import "time"

// Email template types dispatched by the queue drain job.
const (
	EmailOrderConfirmation   = "order_confirmation"
	EmailSubscriptionStarted = "subscription_started"
	EmailRefundNotice        = "refund_notice"
)

// MaxEmailRetries is the send-attempt ceiling; entries that reach it stay in
// the table unsent for operator inspection.
const MaxEmailRetries = 3

// EmailQueueEntry is a durable outbox row decoupling webhook processing from
// the email provider.
type EmailQueueEntry struct {
	ID           string                 `json:"id"`
	ToEmail      string                 `json:"toEmail"`
	EmailType    string                 `json:"emailType"`
	TemplateData map[string]interface{} `json:"templateData,omitempty"`
	Sent         bool                   `json:"sent"`
	RetryCount   int                    `json:"retryCount"`
	ErrorMessage *string                `json:"errorMessage,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	SentAt       *time.Time             `json:"sentAt,omitempty"`
}
