package httpserver

import (
	"errors"
	"net/http"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/flagcache"
	"github.com/gin-gonic/gin"
)

func syncStatusHandler(cache *flagcache.Cache[*domain.SyncReport]) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := cache.Get(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func syncRepairHandler(engine syncEngine, cache *flagcache.Cache[*domain.SyncReport]) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := engine.Repair(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		cache.Invalidate()
		c.JSON(http.StatusOK, result)
	}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func orderStatusHandler(svc adminOrders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			c.JSON(adminStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

type refundRequest struct {
	// Amount is in minor units; omitted means a full refund.
	Amount *int64 `json:"amount,omitempty"`
}

func orderRefundHandler(svc adminOrders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		order, err := svc.Refund(c.Request.Context(), c.Param("id"), req.Amount)
		if err != nil {
			// Admin surface: raw error detail is intentional.
			c.JSON(adminStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func adminStatus(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindIntegrity:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
