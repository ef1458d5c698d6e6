package webhooklog

import "context"

// Repository records webhook events that failed after signature verification
// so repeated hard failures are visible to operators.
type Repository interface {
	Record(ctx context.Context, eventID, eventType string, payload []byte, errorMessage string) error
}
