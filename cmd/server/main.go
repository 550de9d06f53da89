package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appevent "github.com/gymdesk/backend/internal/application/event"
	"github.com/gymdesk/backend/internal/application/enrollment"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/infrastructure/auth"
	"github.com/gymdesk/backend/internal/infrastructure/cache"
	"github.com/gymdesk/backend/internal/infrastructure/config"
	"github.com/gymdesk/backend/internal/infrastructure/event"
	"github.com/gymdesk/backend/internal/infrastructure/logger"
	"github.com/gymdesk/backend/internal/infrastructure/persistence"
	"github.com/gymdesk/backend/internal/infrastructure/scheduler"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"github.com/gymdesk/backend/internal/interfaces/http/handler"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
	"github.com/gymdesk/backend/internal/interfaces/http/router"

	_ "github.com/gymdesk/backend/docs"
)

//	@title			Gymdesk Ledger API
//	@version		1.0
//	@description	Sales, receivables and memberships of a multi-tenant gym.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// A missing .env is fine; the environment and config.toml still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.NewForService(cfg.App, cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	ctx := context.Background()
	providers, err := telemetry.NewProviders(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := telemetry.BridgeLogger(baseLog, providers.LoggerProvider(), cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal("Invalid ledger timezone", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel),
		logger.WithSlowThreshold(cfg.Log.SlowSQLThreshold))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, log); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	ledgerMetrics, err := telemetry.NewLedgerMetrics(providers.Meter("gymdesk/ledger"))
	if err != nil {
		log.Fatal("Failed to register ledger metrics", zap.Error(err))
	}

	// Every ledger transaction records its events to the outbox in the same commit
	clock := shared.SystemClock{}
	calendar := ledger.NewCalendar(clock, loc)
	serializer := event.NewLedgerEventSerializer()
	recorder := event.NewOutboxRecorder(db.DB, serializer, clock)
	scope := persistence.NewGormLedgerTransactionScope(db.DB, recorder, persistence.RetryPolicy{
		MaxRetries:  cfg.Ledger.TxMaxRetries,
		BaseBackoff: cfg.Ledger.TxBaseBackoff,
		MaxBackoff:  cfg.Ledger.TxMaxBackoff,
	}, ledgerMetrics, log)

	saleRepo := persistence.NewGormSaleRepository(db.DB)
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	deactivationService := enrollment.NewDeactivationService(enrollmentRepo, clock, log)
	saleService := ledger.NewSaleService(scope, saleRepo, calendar, ledgerMetrics, log)
	paymentService := ledger.NewPaymentService(scope, calendar, ledgerMetrics, log)
	receivableService := ledger.NewReceivableService(scope, receivableRepo, calendar, cfg.Ledger.OverdueBatchSize, log)
	membershipService := ledger.NewMembershipService(scope, membershipRepo, deactivationService, calendar, ledgerMetrics, log)
	reconciliationService := ledger.NewReconciliationService(scope, clientRepo, receivableRepo, calendar, ledgerMetrics, log)
	outboxService := appevent.NewOutboxService(outboxRepo, clock, log)

	// Outbox delivery: the enrollment cascade is retried from the outbox when
	// the inline deactivation failed
	eventBus := event.NewInMemoryEventBus(log)
	var outboxProcessor *event.OutboxProcessor
	if cfg.Ledger.OutboxEnabled {
		idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Warn("Error closing idempotency store", zap.Error(err))
			}
		}()

		cascade := event.NewIdempotentHandler(
			enrollment.NewCascadeHandler(deactivationService, log),
			idempotencyStore,
			log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Ledger.IdempotencyTTL, Enabled: true}),
		)
		eventBus.Subscribe(cascade, cascade.EventTypes()...)

		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Ledger.OutboxBatchSize
		processorConfig.PollInterval = cfg.Ledger.OutboxPollInterval
		processorConfig.CleanupRetention = cfg.Ledger.OutboxRetention
		outboxProcessor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, clock, log)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	var dailyTrigger *scheduler.DailyTrigger
	if cfg.Ledger.OverdueSweepEnabled {
		dailyTrigger, err = scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			At:            cfg.Ledger.OverdueSweepAt,
			Location:      loc,
			CheckInterval: time.Minute,
		}, clock, log, scheduler.NewOverdueSweep(receivableRepo, receivableService, log))
		if err != nil {
			log.Fatal("Failed to create daily trigger", zap.Error(err))
		}
		if err := dailyTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	var httpMetrics *middleware.HTTPMetrics
	if cfg.HTTP.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		httpMetrics, err = middleware.NewHTTPMetrics(registry)
		if err != nil {
			log.Fatal("Failed to register HTTP metrics", zap.Error(err))
		}
	}

	var jwtService *auth.JWTService
	if cfg.JWT.Enabled {
		jwtService = auth.NewJWTService(cfg.JWT)
	} else {
		log.Warn("JWT authentication disabled, tenants are taken from the X-Tenant-ID header")
	}

	engine, err := router.NewEngine(router.EngineDeps{
		Config: cfg,
		Logger: log,
		Handlers: router.Handlers{
			Sale:       handler.NewSaleHandler(saleService, receivableService),
			Receivable: handler.NewReceivableHandler(receivableService, paymentService),
			Membership: handler.NewMembershipHandler(membershipService),
			ClientDebt: handler.NewClientDebtHandler(reconciliationService),
			Outbox:     handler.NewOutboxHandler(outboxService),
			System:     handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db),
		},
		JWT:     jwtService,
		Metrics: httpMetrics,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if dailyTrigger != nil {
		if err := dailyTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Daily trigger did not stop cleanly", zap.Error(err))
		}
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Warn("Outbox processor did not stop cleanly", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry did not shut down cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
