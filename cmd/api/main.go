package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coldpress-backend/internal/config"
	"coldpress-backend/internal/db"
	"coldpress-backend/internal/httpserver"
	"coldpress-backend/internal/payments"
	catalogrepo "coldpress-backend/internal/repository/catalog"
	discountrepo "coldpress-backend/internal/repository/discount"
	emailrepo "coldpress-backend/internal/repository/emailqueue"
	orderrepo "coldpress-backend/internal/repository/order"
	webhooklogrepo "coldpress-backend/internal/repository/webhooklog"
	adminorderssvc "coldpress-backend/internal/service/adminorders"
	cartvalidatorsvc "coldpress-backend/internal/service/cartvalidator"
	catalogsyncsvc "coldpress-backend/internal/service/catalogsync"
	checkoutsvc "coldpress-backend/internal/service/checkout"
	emailqueuesvc "coldpress-backend/internal/service/emailqueue"
	webhooksvc "coldpress-backend/internal/service/webhook"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	provider := payments.New(cfg.StripeSecretKey)

	catalogRepo := catalogrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	emailRepo := emailrepo.NewPostgres(dbpool)
	webhookLogRepo := webhooklogrepo.NewPostgres(dbpool)
	discountRepo := discountrepo.NewPostgres(dbpool)

	validator := cartvalidatorsvc.New(catalogRepo, provider, cfg.VerifyOneTimePrices)
	checkoutService := checkoutsvc.New(validator, catalogRepo, discountRepo, orderRepo, provider, checkoutsvc.Options{
		SuccessURL:        cfg.CheckoutSuccessURL,
		CancelURL:         cfg.CheckoutCancelURL,
		Currency:          cfg.Currency,
		IdempotencyBucket: cfg.IdempotencyBucket,
	}, logger)
	syncEngine := catalogsyncsvc.New(catalogRepo, provider, cfg.Currency, logger)
	webhookProcessor := webhooksvc.New(orderRepo, emailRepo, webhookLogRepo, cfg.StripeWebhookSecret, logger)
	drainer := emailqueuesvc.NewDrainer(emailRepo, emailqueuesvc.NewLogSender(logger), cfg.EmailQueueBatchSize, logger)
	adminOrders := adminorderssvc.New(orderRepo, provider, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Validator:   validator,
		Checkout:    checkoutService,
		Sessions:    provider,
		Webhook:     webhookProcessor,
		Drainer:     drainer,
		Sync:        syncEngine,
		AdminOrders: adminOrders,
	}, httpserver.Options{
		AllowedOrigins:     cfg.AllowedOrigins,
		CronSecret:         cfg.CronSecret,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		SyncStatusCacheTTL: cfg.SyncStatusCacheTTL,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
