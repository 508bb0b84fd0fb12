package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/chatid"
	apperrors "github.com/zvirja/kindler-bot/internal/errors"
)

const (
	cmdStart     = "start"
	cmdHelp      = "help"
	cmdConfigure = "configure"
	cmdGetConfig = "getconfig"
	cmdAuthorize = "authorize"

	// reviewCmdPrefix is a text command carrying a chat id, emitted by the
	// /authorize listing so the admin can tap straight into a review.
	reviewCmdPrefix = "/authorize/review/"
)

// HandleUpdate processes one inbound update: authorization gate first, then
// interaction resumption, then regular dispatch. The order matters — an
// update that answers a pending question must never double as a new command.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic while handling update", "panic", r)
			if chat, ok := chatid.FromUpdate(update); ok {
				if id, idOK := chat.Int64(); idOK {
					b.sendText(id, fmt.Sprintf("❌ Failed to handle update: %v", r))
				}
			}
		}
	}()

	authorized, err := b.auth.IsAuthorized(update)
	if err != nil {
		b.logger.Error("authorization check failed", "error", err)
		return
	}
	if !authorized {
		chat, _ := chatid.FromUpdate(update)
		b.logger.Warn("received update from non-authorized chat", "chat_id", chat)
		if err := b.auth.TrackUnauthorized(update); err != nil {
			b.logger.Error("failed to track unauthorized chat", "error", err)
			return
		}
		if update.Message != nil {
			b.sendText(update.Message.Chat.ID, apperrors.ErrUnauthorized.UserMsg)
		}
		b.requestChatApproval(update)
		return
	}

	if b.interactions.Resume(update) {
		return
	}

	b.dispatch(update)
}

// dispatch classifies an update and routes it to the matching handler.
func (b *Bot) dispatch(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(update.CallbackQuery)

	case update.Message != nil:
		b.handleMessage(update.Message)

	default:
		// Member changes, polls and other shapes are not interesting.
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.Document != nil {
		b.startConvertWorkflow(msg.Chat, msg.Document)
		return
	}

	// Checked before the command switch: Telegram marks the tapped review
	// link as the bare /authorize command, the chat id rides in the text.
	if strings.HasPrefix(msg.Text, reviewCmdPrefix) {
		b.handleAuthorizeReview(msg)
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case cmdStart, cmdHelp:
			b.handleHelp(msg.Chat)
			return
		case cmdConfigure:
			b.startConfigureWorkflow(msg.Chat)
			return
		case cmdGetConfig:
			b.handleGetConfig(msg.Chat)
			return
		case cmdAuthorize:
			b.handleAuthorizeList(msg)
			return
		}
	}

	b.handleUnknown(msg)
}

func (b *Bot) handleUnknown(msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, `¯\_(ツ)_/¯ Unknown command`)
}
