package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devsync/config"
	"devsync/middleware"
	"devsync/routes"
	"devsync/services"
	"devsync/utils"
	"devsync/worker"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	appLog := utils.Component(logger, "main")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			appLog.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	db, err := config.ConnectDB(cfg, utils.Component(logger, "database"))
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}

	var mailer utils.Mailer = utils.LogMailer{Log: utils.Component(logger, "mailer")}
	if cfg.SMTP.Host != "" {
		mailer = utils.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.FromEmail, cfg.SMTP.FromName)
	} else {
		appLog.Warn("SMTP_HOST not set, invitation emails will only be logged")
	}

	var summarizer worker.Summarizer = worker.TemplateSummarizer{}
	if cfg.AI.Endpoint != "" {
		summarizer = worker.NewHTTPSummarizer(cfg.AI.Endpoint, cfg.AI.APIKey)
	}
	aiWorker := worker.NewAIWorker(db, summarizer, utils.Component(logger, "ai_worker"))

	// AI jobs go through Redis when it is configured, otherwise they run in-process
	var dispatcher services.Dispatcher = worker.InlineDispatcher{Worker: aiWorker}
	if cfg.Redis.Enabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		asynqDispatcher := worker.NewAsynqDispatcher(redisOpt, utils.Component(logger, "dispatcher"))
		defer asynqDispatcher.Close()
		dispatcher = asynqDispatcher

		if err := aiWorker.Start(redisOpt, cfg.AI.Concurrency); err != nil {
			appLog.WithError(err).Fatal("Failed to start AI worker")
		}
		defer aiWorker.Shutdown()
	}

	hub := services.NewActivityHub()
	svc := services.New(services.Deps{
		DB:         db,
		Logger:     logger,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Hub:        hub,
		BaseURL:    cfg.BaseURL,
	})

	sweeper := worker.NewInviteSweeper(cfg.InviteSweepSpec, svc.Teams.ExpireInvites, utils.Component(logger, "invite_sweeper"))
	if err := sweeper.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start invite sweeper")
	}
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{AppName: "DevSync"})
	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// Setup routes
	routes.SetupRoutes(app, db, svc, hub, logger)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	go func() {
		appLog.Infof("🚀 Server starting on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			appLog.WithError(err).Fatal("Failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLog.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLog.WithError(err).Error("Server shutdown failed")
	}
}
