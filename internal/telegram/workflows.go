package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/auth"
	"github.com/zvirja/kindler-bot/internal/chatid"
	"github.com/zvirja/kindler-bot/internal/interaction"
	"github.com/zvirja/kindler-bot/internal/version"
)

// requestChatApproval asks the admin to review a newly tracked chat. When no
// admin chat is configured there is nobody to ask, so nothing happens.
func (b *Bot) requestChatApproval(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	chat := update.Message.Chat

	adminChatID, err := b.settings.AdminChatID()
	if err != nil {
		b.logger.Error("failed to read admin chat id", "error", err)
		return
	}
	if adminChatID == "" {
		return
	}

	chatID := chatid.FromInt64(chat.ID)
	description := auth.DescribeChat(chat)

	prompt := fmt.Sprintf("❓ Please review and approve new user\n\nChat ID: %s\nChat Info: %s", chatID, description)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", encodeApprovalCallback(replyAllow, chatID, description)),
			tgbotapi.NewInlineKeyboardButtonData("Ignore", encodeApprovalCallback(replyDeny, chatID, description)),
		),
	)

	msg := newMessage(adminChatID, prompt)
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send approval prompt to admin", "error", err)
	}
}

// startConfigureWorkflow runs the email configuration conversation in the
// background so the triggering request can return right away.
func (b *Bot) startConfigureWorkflow(chat *tgbotapi.Chat) {
	b.activeUpdates.Add(1)
	go func() {
		defer b.activeUpdates.Done()
		b.configureWorkflow(context.Background(), chat)
	}()
}

func (b *Bot) configureWorkflow(ctx context.Context, chat *tgbotapi.Chat) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic in configure workflow", "panic", r)
			b.sendText(chat.ID, fmt.Sprintf("⚠ Failed to configure: %v", r))
		}
	}()

	b.sendText(chat.ID, "Please enter your @kindle.com address")

	reply, err := b.interactions.AwaitNextUpdate(ctx, chatid.FromInt64(chat.ID))
	if err != nil {
		if !errors.Is(err, interaction.ErrInterrupted) {
			b.logger.Error("configure workflow await failed", "error", err, "chat_id", chat.ID)
		}
		// Superseded by a newer conversation; exit without side effects.
		return
	}

	email := textOf(reply)
	if email == "" || !strings.Contains(email, "@") {
		b.sendText(chat.ID, fmt.Sprintf("⚠ Wrong email address: %s", email))
		return
	}

	if err := b.settings.SetChatEmail(chatid.FromInt64(chat.ID), email); err != nil {
		b.logger.Error("failed to persist chat email", "error", err, "chat_id", chat.ID)
		b.sendText(chat.ID, fmt.Sprintf("⚠ Failed to configure: %v", err))
		return
	}

	b.sendText(chat.ID, fmt.Sprintf("✅ Successfully set email: %s", email))
}

// notifyVersionUpdate tells the admin once after the bot starts on a new
// version.
func (b *Bot) notifyVersionUpdate() {
	lastVersion, err := b.settings.LastVersion()
	if err != nil {
		b.logger.Error("failed to read last version", "error", err)
		return
	}
	if lastVersion == version.Version {
		return
	}

	if err := b.settings.SetLastVersion(version.Version); err != nil {
		b.logger.Error("failed to persist last version", "error", err)
		return
	}

	adminChatID, err := b.settings.AdminChatID()
	if err != nil || adminChatID == "" {
		return
	}

	msg := newMessage(adminChatID, fmt.Sprintf("🎈 Updated to v%s (%s)", version.Version, version.GitSHA))
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send version notification", "error", err)
	}
}

// textOf extracts the text of a plain message update, or "".
func textOf(update tgbotapi.Update) string {
	if update.Message == nil {
		return ""
	}
	return update.Message.Text
}
