package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/cache"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/config"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/handler"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/middleware"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.SetupLogging(cfg.Log)

	// Amounts go out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Apply schema, then connect
	if err := repository.Migrate(cfg.Database.DSN()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if _, err := repo.GetUser(ctx, cfg.Ledger.CompanyUserID); err != nil {
		log.WithError(err).WithField("company_user_id", cfg.Ledger.CompanyUserID).Warn("Company user is missing")
	}

	// Create services
	userService := service.NewUserService(repo)
	ledgerSvc := service.NewLedgerService(repo)
	depositSvc := service.NewDepositService(repo)
	teamSvc := service.NewTeamService(repo)
	adminSvc := service.NewAdminService(repo, cfg.Server.AdminAPIKey)

	if cfg.Server.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY is not set, admin routes will refuse every request")
	}

	// Deposit tag guard
	if cfg.Redis.Enabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, relying on the database for deposit idempotency")
		} else {
			defer rdb.Close()
			depositSvc.SetGuard(cache.NewRedisGuard(rdb, cfg.Ledger.DepositTagTTL))
		}
	}

	// Create Telegram notifier
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg)
		if err != nil {
			log.WithError(err).Warn("Failed to create Telegram bot")
		} else {
			depositSvc.SetNotifier(bot)
		}
	}

	// Create handlers
	h := handler.New(userService, ledgerSvc, depositSvc, repo)
	adminHandler := handler.NewAdminHandler(adminSvc, ledgerSvc, teamSvc, userService)

	limiter := middleware.NewRateLimiter(middleware.DefaultRate, middleware.DefaultBurst)
	go limiter.Run(ctx)

	app := handler.NewApp(cfg.Server.AllowOrigins)
	app.Use(logger.New())
	handler.Register(app, h, adminHandler, adminSvc, limiter)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(config.ShutdownTimeout); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	log.WithFields(log.Fields{
		"port":        cfg.Server.Port,
		"environment": cfg.Server.Environment,
	}).Info("Server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Deposits already committed still owe their Telegram messages
	depositSvc.Wait()
	log.Info("Server stopped")
}
