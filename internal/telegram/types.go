package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

// botAPI is the slice of the Telegram client the bot actually uses.
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// newMessage builds an outgoing message for either a numeric chat id or an
// @-style channel name.
func newMessage(chat chatid.ChatID, text string) tgbotapi.MessageConfig {
	if id, ok := chat.Int64(); ok {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(chat.String(), text)
}
