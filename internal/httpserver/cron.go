package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// drainQueueHandler runs one email-queue drain batch. Meant for scheduled
// invocation; the bearer middleware guards it in production.
func drainQueueHandler(drainer queueDrainer) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := drainer.Drain(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "drain failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
