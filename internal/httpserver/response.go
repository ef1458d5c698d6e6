package httpserver

import (
	"errors"
	"net/http"
	"regexp"

	"coldpress-backend/internal/domain"
)

// customerMessage is the contract for every customer-facing checkout failure:
// a short title, a plain explanation, a concrete next step, and whether a
// retry makes sense.
type customerMessage struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	NextStep  string `json:"nextStep"`
	Retryable bool   `json:"retryable"`
}

// providerIdentifiers matches provider object references (prices, customers,
// sessions, payment intents, subscriptions) that must never reach a customer.
var providerIdentifiers = regexp.MustCompile(`\b(price|cus|cs|pi|sub|prod|promo)_[A-Za-z0-9_]+\b`)

var providerName = regexp.MustCompile(`(?i)stripe`)

// sanitize strips provider identifiers and the provider's name from text that
// could leak to a customer.
func sanitize(msg string) string {
	msg = providerIdentifiers.ReplaceAllString(msg, "[ref]")
	return providerName.ReplaceAllString(msg, "payment provider")
}

// customerError maps an internal error kind to a status code and a safe
// message. Integrity findings are never explained to customers; they route to
// the admin sync report.
func customerError(err error) (int, customerMessage) {
	var de *domain.Error
	message := ""
	if errors.As(err, &de) {
		message = sanitize(de.Message)
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, customerMessage{
			Title:     "Check your cart",
			Message:   message,
			NextStep:  "Fix the highlighted items and try again.",
			Retryable: true,
		}
	case domain.KindAvailability:
		return http.StatusConflict, customerMessage{
			Title:     "Item unavailable",
			Message:   message,
			NextStep:  "Remove or update the affected items before checking out.",
			Retryable: false,
		}
	case domain.KindRateLimited:
		return http.StatusTooManyRequests, customerMessage{
			Title:     "Slow down",
			Message:   "Too many requests in a short time.",
			NextStep:  "Wait a moment and try again.",
			Retryable: true,
		}
	case domain.KindIdempotencyConflict:
		return http.StatusConflict, customerMessage{
			Title:     "Checkout may have already succeeded",
			Message:   "We received this checkout more than once.",
			NextStep:  "Check your email for a confirmation before trying again.",
			Retryable: false,
		}
	default:
		return http.StatusBadGateway, customerMessage{
			Title:     "Something went wrong",
			Message:   "We couldn't reach our payment provider.",
			NextStep:  "Try again in a few minutes.",
			Retryable: true,
		}
	}
}
