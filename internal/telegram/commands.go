package telegram

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/chatid"
	"github.com/zvirja/kindler-bot/internal/version"
)

func (b *Bot) handleHelp(chat *tgbotapi.Chat) {
	text := fmt.Sprintf(
		"Kindler v%s (%s)\n"+
			"Send me a book doc and I'll send it to your Kindle 🚀\n"+
			"\n"+
			"Make sure to add %s to your list of allowed senders on Amazon website.",
		version.Version, version.GitSHA, b.fromEmail)
	b.sendText(chat.ID, text)
}

func (b *Bot) handleGetConfig(chat *tgbotapi.Chat) {
	email, err := b.settings.ChatEmail(chatid.FromInt64(chat.ID))
	if err != nil {
		b.logger.Error("failed to read chat email", "error", err, "chat_id", chat.ID)
		b.sendText(chat.ID, fmt.Sprintf("❌ Failed to read configuration: %v", err))
		return
	}
	if email == "" {
		email = "<unconfigured>"
	}
	b.sendText(chat.ID, fmt.Sprintf("🛠 Configuration\nEmail: %s", email))
}

// handleAuthorizeList replies to the admin with the allowed chats and the
// pending approval requests, each with a tappable review command.
func (b *Bot) handleAuthorizeList(msg *tgbotapi.Message) {
	isAdmin, err := b.auth.IsAdminChat(tgbotapi.Update{Message: msg})
	if err != nil {
		b.logger.Error("admin check failed", "error", err)
		return
	}
	if !isAdmin {
		b.handleUnknown(msg)
		return
	}

	var reply strings.Builder

	reply.WriteString("✔ Allowed chats:\n\n")
	allowed, err := b.auth.AllAllowedChats()
	if err != nil {
		b.logger.Error("failed to list allowed chats", "error", err)
		b.sendText(msg.Chat.ID, fmt.Sprintf("❌ Failed to list chats: %v", err))
		return
	}
	for _, chat := range allowed {
		fmt.Fprintf(&reply, "Chat ID: %s\nChat Info: %s\n%s%s\n\n",
			chat.ChatID, chat.Description, reviewCmdPrefix, chat.ChatID)
	}

	reply.WriteString("🔍 Chat requests:\n\n")
	requests, err := b.auth.AllApprovalRequests()
	if err != nil {
		b.logger.Error("failed to list approval requests", "error", err)
		b.sendText(msg.Chat.ID, fmt.Sprintf("❌ Failed to list requests: %v", err))
		return
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	for _, req := range requests {
		fmt.Fprintf(&reply, "Chat ID: %s\nChat Info: %s\n%s%s\n\n",
			req.ChatID, req.Description, reviewCmdPrefix, req.ChatID)
	}

	b.sendText(msg.Chat.ID, reply.String())
}

// handleAuthorizeReview sends the admin an Allow/Deny prompt for one chat.
func (b *Bot) handleAuthorizeReview(msg *tgbotapi.Message) {
	isAdmin, err := b.auth.IsAdminChat(tgbotapi.Update{Message: msg})
	if err != nil {
		b.logger.Error("admin check failed", "error", err)
		return
	}
	if !isAdmin {
		b.handleUnknown(msg)
		return
	}

	rawID := strings.TrimPrefix(strings.TrimSpace(msg.Text), reviewCmdPrefix)
	reviewChatID, ok := chatid.Parse(rawID)
	if !ok {
		b.sendText(msg.Chat.ID, fmt.Sprintf("❌ Not a chat id: %s", rawID))
		return
	}

	// Description lives either on the pending request or the allowed entry.
	var description string
	if req, err := b.auth.ApprovalRequest(reviewChatID); err == nil && req != nil {
		description = req.Description
	} else if allowed, err := b.auth.AllAllowedChats(); err == nil {
		for _, chat := range allowed {
			if chat.ChatID == reviewChatID {
				description = chat.Description
				break
			}
		}
	}

	isAuthorized, err := b.auth.IsChatAuthorized(reviewChatID)
	if err != nil {
		b.logger.Error("authorization check failed", "error", err)
		return
	}

	prompt := fmt.Sprintf(
		"❓ Please review user authorization\n\nChat ID: %s\nChat Info: %s\nIs authorized: %t",
		reviewChatID, description, isAuthorized)

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Allow", encodeApprovalCallback(replyAllow, reviewChatID, description)),
			tgbotapi.NewInlineKeyboardButtonData("Deny", encodeApprovalCallback(replyDeny, reviewChatID, description)),
		),
	)

	out := newMessage(chatid.FromInt64(msg.Chat.ID), prompt)
	out.ReplyMarkup = markup
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send review prompt", "error", err, "chat_id", msg.Chat.ID)
	}
}
