package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/zvirja/kindler-bot/internal/admin"
	"github.com/zvirja/kindler-bot/internal/auth"
	"github.com/zvirja/kindler-bot/internal/calibre"
	"github.com/zvirja/kindler-bot/internal/config"
	"github.com/zvirja/kindler-bot/internal/interaction"
	"github.com/zvirja/kindler-bot/internal/limiter"
	"github.com/zvirja/kindler-bot/internal/mail"
	"github.com/zvirja/kindler-bot/internal/settings"
	"github.com/zvirja/kindler-bot/internal/telegram"
)

func main() {
	// Load .env if present, then configuration
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	// A missing webhook secret would make the webhook URL guessable
	if cfg.Telegram.WebhookSecret == "" {
		cfg.Telegram.WebhookSecret = uuid.NewString()
		logger.Info("generated webhook secret")
	}

	storageDir, err := resolveStorageDir(cfg.Storage.Dir)
	if err != nil {
		logger.Error("failed to resolve storage directory", "error", err)
		os.Exit(1)
	}

	// Persistent stores
	settingsStore := settings.NewFileStore(filepath.Join(storageDir, "config.json"))
	requestStore := admin.NewFileRequestStore(filepath.Join(storageDir, "chat_approval_requests.json"))

	chatAuth := auth.New(settingsStore, requestStore, cfg.Telegram.EnableAuthorization, logger)
	interactions := interaction.NewManager()

	// Conversion pipeline
	calibreExec := calibre.NewCLIExec(cfg.Calibre.HomeDir, logger)
	converter := calibre.NewClient(calibreExec, cfg.SMTP, logger)

	var sender mail.Sender
	if cfg.SMTP.Mode == "direct" {
		sender = mail.NewSMTPSender(cfg.SMTP)
	} else {
		sender = calibre.EmailSender{Client: converter}
	}

	// One conversion per chat; no global cap
	convLimiter := limiter.NewChatLimiter(0)

	bot, err := telegram.NewBot(
		cfg.Telegram,
		cfg.Debug,
		chatAuth,
		interactions,
		settingsStore,
		converter,
		sender,
		convLimiter,
		cfg.SMTP.FromEmail,
		logger,
	)
	if err != nil {
		logger.Error("failed to create telegram bot", "error", err)
		os.Exit(1)
	}

	// Create root context with cancellation
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// WaitGroup for tracking active goroutines
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bot.Run(rootCtx); err != nil && err != context.Canceled {
			logger.Error("bot error", "error", err)
			rootCancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		admin.NewCleanup(requestStore, logger).Run(rootCtx)
	}()

	logger.Info("bot started",
		"storage_dir", storageDir,
		"smtp_mode", cfg.SMTP.Mode,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig)

	// Cancel root context to signal all goroutines
	rootCancel()

	// Wait for graceful shutdown with timeout
	shutdownTimeout := 30 * time.Second
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel})
	}

	return slog.New(handler)
}

// resolveStorageDir defaults the store location to the executable's
// directory, matching single-binary deployments.
func resolveStorageDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
