package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"spotless/internal/app"
	"spotless/internal/config"
	"spotless/internal/handler"
	internalRedis "spotless/internal/redis"
	"spotless/internal/repository/postgres"
	"spotless/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweepers := wireServer(db, redisClient, nrApp, cfg)

	// Background sweepers run for the life of the process.
	sweepCtx, stopSweepers := context.WithCancel(context.Background())
	defer stopSweepers()
	sweepers(sweepCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopSweepers()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus a
// starter for the background sweepers.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, func(context.Context)) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	cartRepo := postgres.NewCartRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	catalogService := service.NewCatalogService(catalogRepo, cacheStore)
	pricingService := service.NewPricingService(catalogService)
	cartService := service.NewCartService(cartRepo, catalogService, lockStore, cfg.Cart.LockTTL)
	walletService := service.NewWalletService(walletRepo, paymentRepo, cfg.Wallet.Currency)
	gateway := service.NewMockGateway(cfg.Gateway.BaseURL, cfg.Gateway.ReturnURL)
	settlementService := service.NewSettlementService(paymentRepo, orderRepo, catalogService, gateway, notificationService)
	dispatchService := service.NewDispatchService(orderRepo, driverRepo, locationStore, lockStore, notificationService, cfg.Dispatch)
	orderService := service.NewOrderService(orderRepo, driverRepo, catalogService, walletService, settlementService, lockStore, notificationService, cfg.Dispatch)
	checkoutService := service.NewCheckoutService(orderRepo, cartService, catalogService, pricingService, walletService, settlementService, notificationService)
	driverService := service.NewDriverService(driverRepo, locationStore)
	reviewService := service.NewReviewService(reviewRepo, orderRepo)

	// Settlement and checkout trigger dispatch; dispatch cancels through
	// the order service. Attach the cross-links after construction.
	settlementService.SetDispatcher(dispatchService)
	checkoutService.SetDispatcher(dispatchService)
	dispatchService.SetCoverageFailureHandler(orderService)

	// Initialize handlers.
	cartHandler := handler.NewCartHandler(cartService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, pricingService)
	orderHandler := handler.NewOrderHandler(orderService)
	driverHandler := handler.NewDriverHandler(driverService, dispatchService)
	walletHandler := handler.NewWalletHandler(walletService, cfg.Wallet.Currency)
	paymentHandler := handler.NewPaymentHandler(settlementService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CartHandler:     cartHandler,
		CheckoutHandler: checkoutHandler,
		OrderHandler:    orderHandler,
		DriverHandler:   driverHandler,
		WalletHandler:   walletHandler,
		PaymentHandler:  paymentHandler,
		ReviewHandler:   reviewHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	sweepers := func(ctx context.Context) {
		go dispatchService.RunSweeper(ctx)
		go orderService.RunAutoComplete(ctx)
		go orderService.RunPaymentExpiry(ctx)
	}

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweepers
}

