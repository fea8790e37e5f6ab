package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"partner-portal.backend/internal/config"
	"partner-portal.backend/internal/infrastructure/bankaccount"
	"partner-portal.backend/internal/infrastructure/businessregistry"
	"partner-portal.backend/internal/infrastructure/jobs"
	"partner-portal.backend/internal/infrastructure/provider"
	"partner-portal.backend/internal/infrastructure/repositories"
	"partner-portal.backend/internal/interfaces/http/handlers"
	"partner-portal.backend/internal/interfaces/http/middleware"
	"partner-portal.backend/internal/interfaces/http/response"
	"partner-portal.backend/internal/metrics"
	"partner-portal.backend/internal/usecases"
	"partner-portal.backend/pkg/envelope"
	"partner-portal.backend/pkg/jwt"
	"partner-portal.backend/pkg/logger"
	"partner-portal.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newDraftStore = redis.NewDraftStore
	runServer     = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB      = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.SetProviderDiagnostics(cfg.Server.IsDevelopment())

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(ctx, "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(ctx, "Connected to PostgreSQL via GORM")
	}

	drafts, err := newDraftStore(cfg.Security.DraftEncryptionKey, cfg.Onboarding.DraftTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize draft store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	providerClient := newProviderClient(ctx, cfg, m)
	bankClient := bankaccount.NewClient(cfg.BankLookup.BaseURL, cfg.BankLookup.APIKey, cfg.BankLookup.Timeout, m)
	registryClient := businessregistry.NewClient(cfg.BusinessRegistry.BaseURL, cfg.BusinessRegistry.ServiceKey, cfg.BusinessRegistry.Timeout, m)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)

	// Initialize repositories
	regRepo := repositories.NewRegistrationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize usecases
	reconciler := usecases.NewStatusReconciler(regRepo, providerClient, cfg.Reconcile.StrictOrdering, m)
	guard := usecases.NewIdentityGuard(regRepo, userRepo, m)
	bankVerifier := usecases.NewBankVerifier(bankClient)
	businessVerifier := usecases.NewBusinessVerifier(registryClient, guard, cfg.BusinessRegistry.Timeout)
	provisioner := usecases.NewSellerProvisioner(providerClient, regRepo, uow, reconciler, guard)
	onboardingUsecase := usecases.NewOnboardingUsecase(regRepo, drafts, guard, bankVerifier, businessVerifier, provisioner, reconciler)

	// Initialize handlers
	onboardingHandler := handlers.NewOnboardingHandler(onboardingUsecase)
	dashboardHandler := handlers.NewDashboardHandler(onboardingUsecase)
	webhookHandler := handlers.NewWebhookHandler(reconciler, m)

	if cfg.Webhook.RequireSecret && cfg.Webhook.Secret == "" {
		logger.Warn(ctx, "WEBHOOK_REQUIRE_SECRET is set but WEBHOOK_SECRET is empty; every webhook will be rejected")
	}

	// Start background jobs
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	refreshJob := jobs.NewStatusRefreshJob(reconciler, cfg.Reconcile.RefreshInterval, cfg.Reconcile.StaleAfter, cfg.Reconcile.BatchSize)
	if refreshJob.Enabled() {
		go refreshJob.Start(jobCtx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r, sqlDB.PingContext, redis.Ping)
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, routeDeps{
		onboardingHandler: onboardingHandler,
		dashboardHandler:  dashboardHandler,
		webhookHandler:    webhookHandler,
		authMiddleware:    middleware.AuthMiddleware(jwtService),
		dashboardGate:     middleware.RequireDashboardAccess(onboardingUsecase),
		webhookSecret:     middleware.WebhookSecretMiddleware(cfg.Webhook.Secret, cfg.Webhook.RequireSecret),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "Shutting down server")
		if refreshJob.Enabled() {
			refreshJob.Stop()
		}
		cancel()
	}()

	logger.Info(ctx, "Partner portal backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Bool("provider_configured", providerClient.Configured()),
		zap.Bool("strict_ordering", cfg.Reconcile.StrictOrdering),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newProviderClient builds the seller API client. Missing or broken credentials
// leave it unconfigured: provisioning then fails and status pulls fall back to
// the stored value.
func newProviderClient(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *provider.Client {
	var cipher *envelope.Cipher
	if cfg.Provider.Configured() {
		c, err := envelope.NewCipher(cfg.Provider.SecurityKey, envelope.KeyEncoding(cfg.Provider.KeyEncoding))
		if err != nil {
			logger.Error(ctx, "Provider security key rejected; seller API disabled", zap.Error(err))
		} else {
			cipher = c
		}
	} else {
		logger.Warn(ctx, "Payout provider credentials not configured; seller API disabled")
	}
	return provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.SecretKey, cipher, cfg.Provider.Timeout, m)
}
