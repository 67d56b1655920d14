package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/api"
	"github.com/hallelx2/legal-ai-backend/internal/api/middleware"
	"github.com/hallelx2/legal-ai-backend/internal/config"
	"github.com/hallelx2/legal-ai-backend/internal/db"
	"github.com/hallelx2/legal-ai-backend/internal/docusign"
	"github.com/hallelx2/legal-ai-backend/internal/llm"
	"github.com/hallelx2/legal-ai-backend/internal/render"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/logger"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "legal-ai-backend",
		Short:        "Legal agreement generation API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	defaultConfig := "config.toml"
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		defaultConfig = v
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to the TOML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the template catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	})

	return root
}

func setup(configPath string) (*config.Configuration, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Environment, cfg.Logging.Level)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return nil, nil, err
	}
	zap.ReplaceGlobals(zapLogger)
	config.LogConfig(zapLogger)
	return cfg, zapLogger, nil
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, zapLogger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	database, err := db.Initialize(cfg, zapLogger)
	if err != nil {
		zapLogger.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	defer closeDB(database, zapLogger)

	templates := services.NewTemplateService(store.NewTemplateStore(database, nil, zapLogger), zapLogger, nil)
	if _, err := templates.Seed(ctx, services.PredefinedTemplates()); err != nil {
		zapLogger.Error("Failed to seed templates", zap.Error(err))
		return err
	}
	return nil
}

func runServer(parent context.Context, configPath string) error {
	cfg, zapLogger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Initialize(cfg, zapLogger)
	if err != nil {
		zapLogger.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	defer closeDB(database, zapLogger)

	metricsCollector := metrics.NewMetricsCollector()

	var (
		redisClient *redis.Client
		limiter     middleware.AttemptLimiter
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, continuing without it", zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	if redisClient != nil {
		limiter = middleware.NewRedisAttemptTracker(redisClient, cfg.Security.MaxFailedAttempts, cfg.Security.LockoutDuration)
	} else {
		tracker := middleware.NewIPAttemptTracker(cfg.Security.MaxFailedAttempts, cfg.Security.LockoutDuration)
		defer tracker.Close()
		limiter = tracker
	}

	var generator llm.TextGenerator = llm.Unavailable{}
	gemini, err := llm.NewGeminiGenerator(ctx, cfg.Generation, zapLogger)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		zapLogger.Warn("GEMINI_API_KEY not set, section generation will fail")
	case err != nil:
		zapLogger.Error("Failed to initialize text generator", zap.Error(err))
		return err
	default:
		defer gemini.Close()
		generator = gemini
	}

	tokenCipher, err := services.NewTokenCipher(cfg.Security.EncryptionKey)
	if err != nil {
		zapLogger.Error("Failed to initialize token cipher", zap.Error(err))
		return err
	}

	templateStore := store.NewTemplateStore(database, store.NewTemplateCache(redisClient, cfg.Redis.TemplateTTL, zapLogger), zapLogger)
	agreementStore := store.NewAgreementStore(database, zapLogger)
	docusignClient := docusign.NewClient(cfg.DocuSign, nil)

	templateService := services.NewTemplateService(templateStore, zapLogger, metricsCollector)
	generatorService := services.NewGeneratorService(templateService, generator, zapLogger, metricsCollector)
	agreementService := services.NewAgreementService(templateService, generatorService, agreementStore, render.New(cfg.Render.AllowRawHTML), zapLogger, metricsCollector)
	tokenService := services.NewDocuSignTokenService(database, docusignClient, tokenCipher, zapLogger)
	signatureService := services.NewSignatureService(agreementStore, tokenService, docusignClient, cfg.DocuSign.TempDir, zapLogger, metricsCollector)

	if _, err := templateService.Seed(ctx, services.PredefinedTemplates()); err != nil {
		zapLogger.Error("Failed to seed templates", zap.Error(err))
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(zapLogger, api.Dependencies{
		DB:             database,
		Metrics:        metricsCollector,
		Limiter:        limiter,
		Auth:           services.NewAuthService(database, cfg.Security, zapLogger, metricsCollector),
		Users:          services.NewUserService(database, zapLogger),
		Templates:      templateService,
		Agreements:     agreementService,
		Signatures:     signatureService,
		Tokens:         tokenService,
		RequestTimeout: cfg.Server.WriteTimeout,
	})
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			zapLogger.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
		return err
	}

	zapLogger.Info("Server gracefully stopped")
	return nil
}

func closeDB(database *gorm.DB, zapLogger *zap.Logger) {
	sqlDB, err := database.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		zapLogger.Warn("Failed to close database", zap.Error(err))
	}
}
