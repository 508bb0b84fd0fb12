package telegram

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

// approvalCallbackPrefix identifies authorization decisions among callback
// payloads. The payload format is prefix + reply + "_" + chatID + "_" +
// base64(description); the description is base64-encoded because it is free
// text and may contain the delimiter or non-ASCII characters.
const approvalCallbackPrefix = "/authorize/callback/"

type approvalReply string

const (
	replyAllow approvalReply = "Allow"
	replyDeny  approvalReply = "Deny"
)

// callbackDataLimit is Telegram's cap on callback payload bytes.
const callbackDataLimit = 64

func encodeApprovalCallback(reply approvalReply, chatID chatid.ChatID, description string) string {
	// The description is display-only context; truncate it rather than
	// exceed the payload limit. The full text stays in the request store.
	overhead := len(approvalCallbackPrefix) + len(reply) + len(chatID) + 2
	if room := callbackDataLimit - overhead; room > 0 {
		if maxRaw := base64.StdEncoding.DecodedLen(room); len(description) > maxRaw {
			cut := maxRaw
			for cut > 0 && !utf8.RuneStart(description[cut]) {
				cut--
			}
			description = description[:cut]
		}
	}

	encodedDesc := base64.StdEncoding.EncodeToString([]byte(description))
	return fmt.Sprintf("%s%s_%s_%s", approvalCallbackPrefix, reply, chatID, encodedDesc)
}

// decodeApprovalCallback parses an approval payload. Parse failures indicate
// a bug in previously sent data, not user input, and are surfaced as errors.
func decodeApprovalCallback(data string) (approvalReply, chatid.ChatID, string, error) {
	payload, ok := strings.CutPrefix(data, approvalCallbackPrefix)
	if !ok {
		return "", "", "", fmt.Errorf("approval callback: wrong prefix in %q", data)
	}

	parts := strings.Split(payload, "_")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("approval callback: malformed payload %q", data)
	}

	reply := approvalReply(parts[0])
	if reply != replyAllow && reply != replyDeny {
		return "", "", "", fmt.Errorf("approval callback: unknown reply %q", parts[0])
	}

	// Chat ids may themselves contain the delimiter (@user_name), so join
	// everything between the first and last fields back together.
	chatID, ok := chatid.Parse(strings.Join(parts[1:len(parts)-1], "_"))
	if !ok {
		return "", "", "", fmt.Errorf("approval callback: bad chat id in %q", data)
	}

	descBytes, err := base64.StdEncoding.DecodeString(parts[len(parts)-1])
	if err != nil {
		return "", "", "", fmt.Errorf("approval callback: bad description encoding: %w", err)
	}

	return reply, chatID, string(descBytes), nil
}

// handleCallbackQuery routes button presses by payload prefix.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if strings.HasPrefix(query.Data, approvalCallbackPrefix) {
		b.handleApprovalCallback(query)
		return
	}

	b.logger.Warn("unhandled callback query", "data", query.Data)
	b.answerCallback(query.ID)
}

// handleApprovalCallback applies an admin's Allow/Deny decision.
func (b *Bot) handleApprovalCallback(query *tgbotapi.CallbackQuery) {
	reply, targetChat, description, err := decodeApprovalCallback(query.Data)
	if err != nil {
		// Own previously-sent data failed to parse: an encoding bug, so it
		// goes to the operator, not the end user.
		b.logger.Error("failed to decode approval callback", "error", err)
		b.answerCallback(query.ID)
		return
	}

	var statusLine string
	if reply == replyAllow {
		if err := b.auth.AuthorizeChat(targetChat, description); err != nil {
			b.logger.Error("failed to authorize chat", "error", err, "chat_id", targetChat)
			b.answerCallback(query.ID)
			return
		}

		approvedMsg := newMessage(targetChat, "Your bot usage was approved.\nPlease click here: /start")
		if _, err := b.api.Send(approvedMsg); err != nil {
			b.logger.Error("failed to notify approved chat", "error", err, "chat_id", targetChat)
		}

		statusLine = "✅ Allowed to use bot!"
		b.logger.Info("authorized chat", "chat_id", targetChat, "description", description)
	} else {
		if err := b.auth.RevokeChatAuthorization(targetChat); err != nil {
			b.logger.Error("failed to revoke chat", "error", err, "chat_id", targetChat)
			b.answerCallback(query.ID)
			return
		}

		statusLine = "❌ Denied to use bot!"
		b.logger.Info("denied chat", "chat_id", targetChat, "description", description)
	}

	if query.Message != nil {
		status := fmt.Sprintf("%s\n\nChat ID: %s\nChat Info: %s", statusLine, targetChat, description)
		edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, status)
		if _, err := b.api.Send(edit); err != nil {
			b.logger.Error("failed to edit approval message", "error", err)
		}
	}

	b.answerCallback(query.ID)
}

func (b *Bot) answerCallback(callbackID string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.logger.Error("failed to answer callback query", "error", err)
	}
}
