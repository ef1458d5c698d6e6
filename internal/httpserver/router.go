package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/flagcache"
	"coldpress-backend/internal/service/catalogsync"
	"coldpress-backend/internal/service/checkout"
	"coldpress-backend/internal/service/emailqueue"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stripe/stripe-go/v72"
)

type cartValidator interface {
	Validate(ctx context.Context, items []domain.CartItem) (*domain.CartValidation, error)
}

type checkoutService interface {
	Create(ctx context.Context, in checkout.CreateInput) (*checkout.Session, *domain.CartValidation, error)
}

type sessionFetcher interface {
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type webhookProcessor interface {
	Process(ctx context.Context, payload []byte, sigHeader string) error
}

type queueDrainer interface {
	Drain(ctx context.Context) (emailqueue.Result, error)
}

type syncEngine interface {
	Status(ctx context.Context) (*domain.SyncReport, error)
	Repair(ctx context.Context) (*catalogsync.RepairResult, error)
}

type adminOrders interface {
	UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error)
	Refund(ctx context.Context, orderID string, amount *int64) (*domain.Order, error)
}

// Deps carries the services the router exposes.
type Deps struct {
	Validator   cartValidator
	Checkout    checkoutService
	Sessions    sessionFetcher
	Webhook     webhookProcessor
	Drainer     queueDrainer
	Sync        syncEngine
	AdminOrders adminOrders
}

// Options carries HTTP-surface configuration.
type Options struct {
	AllowedOrigins     []string
	CronSecret         string
	RateLimitRPS       float64
	RateLimitBurst     int
	SyncStatusCacheTTL time.Duration
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	if len(opts.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = opts.AllowedOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		api.Use(cors.New(corsCfg))
	}

	// Validation and session lookup are the abuse-prone endpoints; only they
	// sit behind the per-client limiter.
	limited := newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	api.POST("/cart/validate", limited.middleware(), validateCartHandler(deps.Validator))
	api.GET("/checkout/session/:id", limited.middleware(), getSessionHandler(deps.Sessions))

	api.POST("/checkout/session", createSessionHandler(deps.Checkout))
	api.POST("/webhooks/stripe", stripeWebhookHandler(deps.Webhook, logger))

	api.GET("/cron/process-email-queue", bearerAuth(opts.CronSecret), drainQueueHandler(deps.Drainer))

	// The sync status report is cheap to serve stale for a few seconds, so a
	// TTL cache shields the provider API from repeated admin polling.
	statusCache := flagcache.New(opts.SyncStatusCacheTTL, func(ctx context.Context) (*domain.SyncReport, error) {
		return deps.Sync.Status(ctx)
	})

	admin := api.Group("/admin", bearerAuth(opts.CronSecret))
	admin.GET("/sync/status", syncStatusHandler(statusCache))
	admin.POST("/sync/repair", syncRepairHandler(deps.Sync, statusCache))
	admin.POST("/orders/:id/status", orderStatusHandler(deps.AdminOrders))
	admin.POST("/orders/:id/refund", orderRefundHandler(deps.AdminOrders))

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
