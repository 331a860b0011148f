package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/finmind"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/logging"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/provider"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/scheduler"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	logging.SetGlobalLogger(logger)

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	logger.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	ctx := context.Background()
	schemaVersion, err := database.Migrate(ctx, db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().Int64("schema_version", schemaVersion).Str("app_version", version.Version).Msg("Database ready")

	// Create repositories
	accountRepo := repository.NewAccountRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	eventRepo := repository.NewDistributionEventRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	settingsService, err := service.NewSettingsService(settingsRepo, cfg.Security.EncryptionKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create settings service")
	}
	if cfg.Security.EncryptionKey == "" {
		logger.Warn().Msg("ENCRYPTION_KEY not set, FinMind token cannot be stored")
	}

	// Market data providers: FinMind first, Yahoo as fallback
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}
	finmindClient := finmind.NewClient(
		finmind.WithBaseURL(cfg.Providers.FinMindBaseURL),
		finmind.WithHTTPClient(httpClient),
		finmind.WithRateLimit(cfg.Providers.FinMindRateLimit),
		finmind.WithTokenSource(settingsService),
		finmind.WithLogger(logger),
	)
	yahooClient := yahoo.NewFinanceClient(
		yahoo.WithBaseURL(cfg.Providers.YahooBaseURL),
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithRateLimit(cfg.Providers.YahooRateLimit),
		yahoo.WithLogger(logger),
	)
	providers := provider.NewChain(logger).
		WithDistributionProviders(finmindClient, yahooClient).
		WithPriceProviders(finmindClient, yahooClient)

	// Create services
	systemService := service.NewSystemService(db, map[string]bool{
		"finmind":   true,
		"yahoo":     true,
		"scheduler": cfg.Scheduler.Enabled,
	})
	accountService := service.NewAccountService(
		accountRepo,
		cfg.Fees.BrokerageFeeRate,
		cfg.Fees.TransactionTaxRate,
	)
	holdingService := service.NewHoldingService(
		db,
		holdingRepo,
		eventRepo,
		accountRepo,
		providers,
		cfg.Providers.Timeout,
		logger,
	)
	clock := func() time.Time { return time.Now().UTC() }
	rightsService := service.NewRightsService(
		holdingService,
		providers,
		rights.NewProcessor(logger),
		service.WithProviderTimeout(cfg.Providers.Timeout),
		service.WithClock(clock),
		service.WithRightsLogger(logger),
	)
	batchService := service.NewBatchService(
		rightsService,
		holdingService,
		service.BatchOptions{
			BatchSize: cfg.Rights.BatchSize,
			Delay:     cfg.Rights.BatchDelay,
		},
		logger,
		service.WithBatchClock(clock),
	)
	gainLossService := service.NewGainLossService(holdingService, accountRepo)

	// Background refresh of stale holdings
	sched := scheduler.New(logger)
	if cfg.Scheduler.Enabled {
		job := scheduler.NewRightsRefreshJob(batchService, logger)
		if err := sched.AddJob(cfg.Scheduler.RefreshSchedule, job); err != nil {
			logger.Fatal().Err(err).Msg("Failed to register scheduled job")
		}
		sched.Start()
	}

	// Create router
	router := api.NewRouter(api.Services{
		System:   systemService,
		Account:  accountService,
		Holding:  holdingService,
		Rights:   rightsService,
		Batch:    batchService,
		GainLoss: gainLossService,
		Settings: settingsService,
	}, cfg, logger)

	// Create HTTP server. Account batches pause between chunks, so writes get
	// more time than reads.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	if cfg.Scheduler.Enabled {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	logger.Info().Msg("Server exited")
}
