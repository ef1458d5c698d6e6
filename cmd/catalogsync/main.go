package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"coldpress-backend/internal/config"
	"coldpress-backend/internal/db"
	"coldpress-backend/internal/payments"
	catalogrepo "coldpress-backend/internal/repository/catalog"
	catalogsyncsvc "coldpress-backend/internal/service/catalogsync"
)

// Run-to-completion reconciliation job: prints a drift report, and with
// -repair creates the provider records needed to close the gaps.
func main() {
	repair := flag.Bool("repair", false, "create missing provider products/prices and persist the references")
	flag.Parse()

	logger := log.New(os.Stdout, "[catalogsync] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	catalogRepo := catalogrepo.NewPostgres(pool, logger)
	provider := payments.New(cfg.StripeSecretKey)
	engine := catalogsyncsvc.New(catalogRepo, provider, cfg.Currency, logger)

	report, err := engine.Status(ctx)
	if err != nil {
		logger.Fatalf("sync status: %v", err)
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if !*repair {
		return
	}

	result, err := engine.Repair(ctx)
	if err != nil {
		logger.Fatalf("sync repair: %v", err)
	}
	logger.Printf("repair complete: products=%d prices=%d variants=%d",
		result.ProductsCreated, result.PricesCreated, result.VariantsRepaired)
}
