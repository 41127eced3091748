package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"referral-credit-system/config"
	"referral-credit-system/handlers"
	"referral-credit-system/middleware"
	"referral-credit-system/services"
	"referral-credit-system/store"
	"referral-credit-system/utils"
	"referral-credit-system/workers"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ledger, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := ledger.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	opts := []services.Option{services.WithReferralBaseURL(cfg.ReferralBaseURL)}
	if cfg.RedisEnabled() {
		cache, err := store.NewStatsCache(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			// Dashboards fall back to the database.
			logger.Warn("[CACHE] redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			defer cache.Close()
			opts = append(opts, services.WithStatsCache(cache))
		}
	}
	svc := services.NewReferralService(ledger, logger, opts...)

	var uploader services.ReportUploader
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
		})
		if err != nil {
			return err
		}
		uploader = r2
	}

	sched, err := svc.StartScheduler(ctx, cfg.AuditInterval, uploader)
	if err != nil {
		return err
	}
	defer shutdownScheduler(sched, logger)

	if cfg.OrderSyncEnabled() {
		w := workers.NewOrderSyncWorker(cfg.OrderServiceURL, cfg.ServiceToken, utils.NewHTTPClient(30*time.Second), svc, logger)
		go w.Run(ctx, cfg.OrderPollInterval)
	}

	if cfg.KafkaEnabled() {
		reader := workers.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaPurchasesTopic, cfg.KafkaGroupID)
		consumer := workers.NewPurchaseConsumer(reader, svc, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("[KAFKA] purchase consumer exited", zap.Error(err))
			}
		}()
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.IsProduction()})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, logger, handlers.HealthPath, handlers.MetricsPath))

	handlers.SetupOpsRoutes(app, ledger.DB())
	handlers.SetupReferralRoutes(app, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	logger.Info("server running",
		zap.Int("port", cfg.Port),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Bool("redis", cfg.RedisEnabled()),
		zap.Bool("order_sync", cfg.OrderSyncEnabled()),
		zap.Bool("kafka", cfg.KafkaEnabled()),
		zap.Bool("r2_reports", uploader != nil),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func shutdownScheduler(sched gocron.Scheduler, logger *zap.Logger) {
	if err := sched.Shutdown(); err != nil {
		logger.Warn("[SCHEDULER] shutdown failed", zap.Error(err))
	}
}
