package httpserver

import (
	"net/http"
	"strings"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

type validateCartRequest struct {
	Items []domain.CartItem `json:"items"`
}

func validateCartHandler(validator cartValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}

		result, err := validator.Validate(c.Request.Context(), req.Items)
		if err != nil {
			status, msg := customerError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func createSessionHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}

		session, validation, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			status, msg := customerError(err)
			resp := gin.H{"error": msg}
			if validation != nil {
				resp["details"] = validation.Errors
			}
			c.JSON(status, resp)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func getSessionHandler(sessions sessionFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !validSessionRef(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session reference"})
			return
		}

		session, err := sessions.GetCheckoutSession(c.Request.Context(), id)
		if err != nil {
			status, msg := customerError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		// Only the fields the confirmation page needs; the raw session object
		// is full of provider identifiers.
		email := ""
		if session.CustomerDetails != nil {
			email = session.CustomerDetails.Email
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        session.Status,
			"paymentStatus": session.PaymentStatus,
			"customerEmail": email,
			"amountTotal":   session.AmountTotal,
		})
	}
}

// validSessionRef checks the provider's session-id shape so garbage never
// reaches the provider API.
func validSessionRef(ref string) bool {
	if !strings.HasPrefix(ref, "cs_") || len(ref) < 4 || len(ref) > 128 {
		return false
	}
	for _, r := range ref[3:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
