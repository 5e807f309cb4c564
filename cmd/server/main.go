package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applisting "github.com/flipledger/backend/internal/application/listing"
	"github.com/flipledger/backend/internal/domain/listing"
	"github.com/flipledger/backend/internal/infrastructure/config"
	"github.com/flipledger/backend/internal/infrastructure/logger"
	"github.com/flipledger/backend/internal/infrastructure/marketplace"
	"github.com/flipledger/backend/internal/infrastructure/persistence"
	"github.com/flipledger/backend/internal/infrastructure/scheduler"
	"github.com/flipledger/backend/internal/interfaces/http/handler"
	"github.com/flipledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting flipledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	// Mapping ledger repository
	mappingRepo := persistence.NewGormListingMappingRepository(db.DB)

	// Marketplace clients
	exchangeClient, err := marketplace.NewExchangeClient(&marketplace.ExchangeConfig{
		BaseURL:        cfg.Exchange.BaseURL,
		Token:          cfg.Exchange.Token,
		TimeoutSeconds: int(cfg.Exchange.Timeout.Seconds()),
		RetryMax:       cfg.Exchange.RetryMax,
	}, log)
	if err != nil {
		log.Fatal("Failed to build exchange client", zap.Error(err))
	}

	auctionClient, err := marketplace.NewAuctionClient(&marketplace.AuctionConfig{
		BaseURL:        cfg.Auction.BaseURL,
		Token:          cfg.Auction.Token,
		TimeoutSeconds: int(cfg.Auction.Timeout.Seconds()),
		RetryMax:       cfg.Auction.RetryMax,
	}, log)
	if err != nil {
		log.Fatal("Failed to build auction client", zap.Error(err))
	}

	// Catalog enrichment is optional; without it items fall back to the
	// default category and user-supplied attributes
	var enricher listing.CatalogEnricher = noopEnricher{}
	if cfg.Catalog.BaseURL != "" {
		catalogClient, err := marketplace.NewCatalogClient(&marketplace.CatalogConfig{
			BaseURL:        cfg.Catalog.BaseURL,
			Token:          cfg.Catalog.Token,
			TimeoutSeconds: int(cfg.Catalog.Timeout.Seconds()),
		}, log)
		if err != nil {
			log.Fatal("Failed to build catalog client", zap.Error(err))
		}
		enricher = catalogClient
	} else {
		log.Warn("Catalog enrichment disabled: catalog.base_url is not set")
	}

	// Listing orchestrator
	orchestrator := applisting.NewOrchestrator(applisting.OrchestratorConfig{
		MerchantLocationKey: cfg.Auction.MerchantLocationKey,
		DefaultAddress: listing.CreateLocationPayload{
			Name:            cfg.Location.Name,
			AddressLine1:    cfg.Location.AddressLine1,
			City:            cfg.Location.City,
			StateOrProvince: cfg.Location.StateOrProvince,
			PostalCode:      cfg.Location.PostalCode,
			Country:         cfg.Location.Country,
		},
		PaymentPolicyID:     cfg.Auction.PaymentPolicyID,
		ReturnPolicyID:      cfg.Auction.ReturnPolicyID,
		FulfillmentPolicyID: cfg.Auction.FulfillmentPolicyID,
		Currency:            cfg.Auction.Currency,
		DefaultCategoryID:   cfg.Auction.DefaultCategoryID,
		RequiredAspects:     cfg.Sync.RequiredAspects,
		MaxInFlight:         cfg.Sync.MaxInFlight,
	}, auctionClient, enricher, mappingRepo, log)

	// Reconciliation engine and its scheduler
	reconciler := applisting.NewReconciler(exchangeClient, auctionClient, mappingRepo, log)

	reconcileScheduler, err := scheduler.NewReconcileScheduler(scheduler.ReconcileSchedulerConfig{
		Enabled:       cfg.Reconcile.Enabled,
		Interval:      cfg.Reconcile.Interval,
		JobTimeout:    cfg.Reconcile.JobTimeout,
		RetryAttempts: cfg.Reconcile.RetryAttempts,
		RetryDelay:    cfg.Reconcile.RetryDelay,
		HistoryLimit:  cfg.Reconcile.HistoryLimit,
	}, reconciler, log)
	if err != nil {
		log.Fatal("Failed to build reconcile scheduler", zap.Error(err))
	}

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := reconcileScheduler.Start(schedulerCtx); err != nil {
		log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSyncHandler(orchestrator)).
		Register(handler.NewMappingHandler(mappingRepo)).
		Register(handler.NewReconcileHandler(reconcileScheduler))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schedulerCancel()
	if err := reconcileScheduler.Stop(ctx); err != nil {
		log.Error("Reconcile scheduler did not stop cleanly", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// noopEnricher stands in when catalog enrichment is not configured. A
// nil CatalogInfo means "no enrichment available" to the pipeline.
type noopEnricher struct{}

func (noopEnricher) Lookup(context.Context, string) (*listing.CatalogInfo, error) {
	return nil, nil
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
