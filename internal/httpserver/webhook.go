package httpserver

import (
	"io"
	"log"
	"net/http"

	"coldpress-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// stripeWebhookHandler hands the raw body and signature header to the
// processor. 200 acknowledges the event (including intentionally ignored
// kinds), 400 covers signature failures, and 500 tells the provider to
// redeliver after an internal failure.
func stripeWebhookHandler(processor webhookProcessor, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		err = processor.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			if domain.KindOf(err) == domain.KindValidation {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
				return
			}
			logger.Printf("webhook handler: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
