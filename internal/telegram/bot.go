package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/auth"
	"github.com/zvirja/kindler-bot/internal/calibre"
	"github.com/zvirja/kindler-bot/internal/config"
	"github.com/zvirja/kindler-bot/internal/interaction"
	"github.com/zvirja/kindler-bot/internal/limiter"
	"github.com/zvirja/kindler-bot/internal/mail"
	"github.com/zvirja/kindler-bot/internal/settings"
)

// Bot wires the Telegram transport to the dispatch, authorization and
// workflow machinery.
type Bot struct {
	api          botAPI
	cfg          config.TelegramConfig
	debugCfg     config.DebugConfig
	auth         *auth.ChatAuthorization
	interactions *interaction.Manager
	settings     settings.Store
	converter    *calibre.Client
	sender       mail.Sender
	convLimiter  *limiter.ChatLimiter
	fromEmail    string
	logger       *slog.Logger

	// Track active update processing for graceful shutdown
	activeUpdates sync.WaitGroup
}

// NewBot creates a bot over an authenticated Telegram API client.
func NewBot(
	cfg config.TelegramConfig,
	debugCfg config.DebugConfig,
	chatAuth *auth.ChatAuthorization,
	interactions *interaction.Manager,
	settingsStore settings.Store,
	converter *calibre.Client,
	sender mail.Sender,
	convLimiter *limiter.ChatLimiter,
	fromEmail string,
	logger *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authenticated", "username", api.Self.UserName)

	return &Bot{
		api:          api,
		cfg:          cfg,
		debugCfg:     debugCfg,
		auth:         chatAuth,
		interactions: interactions,
		settings:     settingsStore,
		converter:    converter,
		sender:       sender,
		convLimiter:  convLimiter,
		fromEmail:    fromEmail,
		logger:       logger,
	}, nil
}

// Run registers the webhook and serves it until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.registerWebhook(); err != nil {
		return err
	}
	if err := b.announceCommands(); err != nil {
		b.logger.Warn("failed to announce bot commands", "error", err)
	}
	b.notifyVersionUpdate()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/{signature}", b.handleWebhook)

	server := &http.Server{
		Addr:         b.cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("webhook server listening", "addr", b.cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)

	case <-ctx.Done():
		b.logger.Info("stopping bot, waiting for active updates")

		if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			b.logger.Warn("failed to delete webhook", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("webhook server shutdown", "error", err)
		}

		done := make(chan struct{})
		go func() {
			b.activeUpdates.Wait()
			close(done)
		}()

		select {
		case <-done:
			b.logger.Info("all active updates completed")
		case <-time.After(25 * time.Second):
			b.logger.Warn("some updates may not have completed")
		}

		return ctx.Err()
	}
}

func (b *Bot) registerWebhook() error {
	url := fmt.Sprintf("%s/webhook/%s", b.cfg.PublicURL, b.cfg.WebhookSecret)
	webhook, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}

	if _, err := b.api.Request(webhook); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}

	b.logger.Info("registered webhook", "url", url)
	return nil
}

func (b *Bot) announceCommands() error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: cmdHelp, Description: "Get usage info"},
		tgbotapi.BotCommand{Command: cmdConfigure, Description: "Configure my preferences"},
		tgbotapi.BotCommand{Command: cmdGetConfig, Description: "Get my preferences"},
	)
	if _, err := b.api.Request(commands); err != nil {
		return err
	}

	b.logger.Info("announced bot commands")
	return nil
}

// sendText delivers a plain text message, logging failures instead of
// propagating them.
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "error", err, "chat_id", chatID)
	}
}
