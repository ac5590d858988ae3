package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"referral-bot.backend/internal/config"
	"referral-bot.backend/internal/infrastructure/datasources/database"
	"referral-bot.backend/internal/infrastructure/telegram"
	"referral-bot.backend/internal/interfaces/http/handlers"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/redis"
)

// updateSource is the part of the bot client that controls update delivery
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var allowedUpdates = []string{"message", "callback_query", "chat_join_request"}

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv        = godotenv.Load
	loadCfg           = config.Load
	initLog           = logger.Init
	initRedis         = redis.Init
	openDB            = database.NewConnection
	newTelegramClient = func(token string, channelID int64) (*telegram.Client, updateSource, error) {
		client, bot, err := telegram.NewClient(token, channelID)
		if err != nil {
			return nil, nil, err
		}
		return client, bot, nil
	}
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
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

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Redis is optional; it backs join requests, throttling and webhook dedup
	if cfg.Redis.URL != "" {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()
		logger.Info(ctx, "Redis initialized")
	} else {
		logger.Warn(ctx, "REDIS_URL not set, join request tracking disabled")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	logger.Info(ctx, "Connected to database", zap.String("driver", cfg.Database.Driver))

	client, bot, err := newTelegramClient(cfg.Telegram.BotToken, cfg.Telegram.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logger.Info(ctx, "Authorized on Telegram", zap.String("bot", client.Username()))

	a := buildApp(cfg, db, client)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.pendingJob != nil {
		go a.pendingJob.Start(ctx)
	}

	deps := routeDeps{healthHandler: handlers.NewHealthHandler(sqlDB, serviceName, serviceVersion)}
	pollingDone := make(chan struct{})

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		close(pollingDone)
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			return fmt.Errorf("invalid webhook url: %w", err)
		}
		wh.AllowedUpdates = allowedUpdates
		if _, err := bot.Request(wh); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
		deps.webhookHandler = handlers.NewWebhookHandler(a.processor)
		deps.webhookPath = cfg.Telegram.WebhookPath
		logger.Info(ctx, "Webhook registered", zap.String("path", cfg.Telegram.WebhookPath))
	default:
		// a leftover webhook makes getUpdates fail
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn(ctx, "Failed to delete webhook", zap.Error(err))
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		u.AllowedUpdates = allowedUpdates
		updates := bot.GetUpdatesChan(u)
		go func() {
			defer close(pollingDone)
			a.processor.Run(ctx, updates)
		}()
		logger.Info(ctx, "Long polling started")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- runServer(srv) }()
	logger.Info(ctx, "Referral bot starting", zap.String("port", cfg.Server.Port), zap.String("mode", cfg.Telegram.Mode))

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "HTTP shutdown incomplete", zap.Error(err))
	}

	if cfg.Telegram.Mode != config.ModeWebhook {
		bot.StopReceivingUpdates()
	}
	<-pollingDone
	a.processor.Wait()
	if a.pendingJob != nil {
		a.pendingJob.Stop()
	}
	a.dispatcher.Close()

	return runErr
}
