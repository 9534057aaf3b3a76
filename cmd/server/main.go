package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/servicebooks/backend/internal/application/billing"
	ledgerapp "github.com/servicebooks/backend/internal/application/ledger"
	tradeapp "github.com/servicebooks/backend/internal/application/trade"
	"github.com/servicebooks/backend/internal/infrastructure/auth"
	"github.com/servicebooks/backend/internal/infrastructure/config"
	"github.com/servicebooks/backend/internal/infrastructure/lock"
	"github.com/servicebooks/backend/internal/infrastructure/logger"
	"github.com/servicebooks/backend/internal/infrastructure/persistence"
	"github.com/servicebooks/backend/internal/infrastructure/telemetry"
	"github.com/servicebooks/backend/internal/interfaces/http/handler"
	"github.com/servicebooks/backend/internal/interfaces/http/middleware"
	"github.com/servicebooks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry providers. When disabled they degrade to no-ops
	// so the middleware and DB plugins can be wired unconditionally.
	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logs provider", zap.Error(err))
		}
	}()

	// Bridge application logs into the OTEL pipeline when export is enabled
	if logsProvider.IsEnabled() {
		log = telemetry.BridgeLogger(log, logsProvider, cfg.Telemetry.ServiceName, cfg.Log.Level)
	}

	// Initialize database with zap-backed GORM logger
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", zap.Error(err))
		}
	}()

	log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Database query tracing (otelgorm with slow query detection)
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Database metrics (query duration, connection pool stats)
	if meterProvider.IsEnabled() {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			dbMetrics.StartPoolStatsCollection(ctx)
			defer dbMetrics.Stop()
		}
	}

	// Redis-backed document locker for payment and application mutations
	locker, err := lock.NewRedisDocumentLocker(lock.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, lock.Options{
		TTL:           cfg.Lock.TTL,
		RetryInterval: cfg.Lock.RetryInterval,
		MaxRetries:    cfg.Lock.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := locker.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	creditNoteRepo := persistence.NewGormCreditNoteRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	journalRepo := persistence.NewGormJournalEntryRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Initialize application services
	postingService := ledgerapp.NewPostingService(accountRepo, journalRepo, log)
	trialBalanceService := ledgerapp.NewTrialBalanceService(accountRepo, journalRepo, log)
	chartService := ledgerapp.NewChartService(accountRepo, journalRepo, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, postingService, txManager, locker, log)
	creditNoteService := billingapp.NewCreditNoteService(creditNoteRepo, invoiceRepo, postingService, txManager, locker, log)
	salesOrderService := tradeapp.NewSalesOrderService(salesOrderRepo, invoiceRepo, txManager, log)

	// JWT service for tenant/actor claims on API routes
	jwtService := auth.NewJWTService(cfg.JWT)

	// Periodic receivables metrics (outstanding balances, overdue counts)
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:               meterProvider.Meter("servicebooks.business"),
			Logger:              log,
			ReceivablesProvider: telemetry.NewGormReceivablesMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	creditNoteHandler := handler.NewCreditNoteHandler(creditNoteService)
	salesOrderHandler := handler.NewSalesOrderHandler(salesOrderService)
	ledgerHandler := handler.NewLedgerHandler(chartService, postingService)
	trialBalanceHandler := handler.NewTrialBalanceHandler(trialBalanceService)
	systemHandler := handler.NewSystemHandler(db.DB)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start server spans, propagate trace context
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Metrics - Record request duration and counts
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// HTTP metrics
	engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("servicebooks.http"), meterProvider.IsEnabled()))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant context for handlers and log correlation, sourced from JWT claims
	r.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		JWTEnabled: true,
		SkipPaths:  jwtConfig.SkipPaths,
		Required:   false,
		Logger:     log,
	}))

	// Billing domain (invoices with embedded payments, credit notes)
	billingRoutes := router.NewDomainGroup("billing", "")

	// Invoice routes
	billingRoutes.POST("/invoices", invoiceHandler.Create)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/summary", invoiceHandler.GetSummary)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.DELETE("/invoices/:id", invoiceHandler.DeleteDraft)
	billingRoutes.POST("/invoices/:id/send", invoiceHandler.Send)
	billingRoutes.POST("/invoices/:id/viewed", invoiceHandler.MarkViewed)
	billingRoutes.POST("/invoices/:id/payments", invoiceHandler.RecordPayment)
	billingRoutes.DELETE("/invoices/:id/payments/:paymentId", invoiceHandler.DeletePayment)
	billingRoutes.POST("/invoices/:id/void", invoiceHandler.Void)
	billingRoutes.POST("/invoices/:id/write-off", invoiceHandler.WriteOff)
	billingRoutes.POST("/invoices/:id/clone", invoiceHandler.Clone)

	// Credit note routes
	billingRoutes.POST("/credit-notes", creditNoteHandler.Create)
	billingRoutes.GET("/credit-notes", creditNoteHandler.List)
	billingRoutes.GET("/credit-notes/:id", creditNoteHandler.GetByID)
	billingRoutes.POST("/credit-notes/:id/apply", creditNoteHandler.Apply)
	billingRoutes.POST("/credit-notes/:id/refund", creditNoteHandler.Refund)

	// Trade domain (sales orders with two-level approval)
	tradeRoutes := router.NewDomainGroup("trade", "")
	tradeRoutes.POST("/sales-orders", salesOrderHandler.Create)
	tradeRoutes.GET("/sales-orders", salesOrderHandler.List)
	tradeRoutes.GET("/sales-orders/:id", salesOrderHandler.GetByID)
	tradeRoutes.PUT("/sales-orders/:id/lines", salesOrderHandler.UpdateLines)
	tradeRoutes.POST("/sales-orders/:id/submit", salesOrderHandler.Submit)
	tradeRoutes.POST("/sales-orders/:id/transition", salesOrderHandler.Transition)
	tradeRoutes.POST("/sales-orders/:id/convert", salesOrderHandler.Convert)
	tradeRoutes.POST("/sales-orders/:id/complete", salesOrderHandler.Complete)

	// Ledger domain (chart of accounts, journal entries)
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.POST("/accounts", ledgerHandler.CreateAccount)
	ledgerRoutes.GET("/accounts", ledgerHandler.ListAccounts)
	ledgerRoutes.POST("/accounts/seed", ledgerHandler.SeedAccounts)
	ledgerRoutes.POST("/journal-entries", ledgerHandler.PostManualEntry)
	ledgerRoutes.GET("/journal-entries", ledgerHandler.ListJournalEntries)
	ledgerRoutes.GET("/journal-entries/:id", ledgerHandler.GetJournalEntry)

	// Reports domain
	reportRoutes := router.NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/trial-balance", trialBalanceHandler.Get)
	reportRoutes.GET("/trial-balance/csv", trialBalanceHandler.ExportCSV)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Register all domain groups
	r.Register(billingRoutes).
		Register(tradeRoutes).
		Register(ledgerRoutes).
		Register(reportRoutes).
		Register(systemRoutes)

	// Setup routes
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
