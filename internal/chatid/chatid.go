package chatid

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatID is the canonical string form of a Telegram chat identifier.
// Numeric chat ids and "@channelname" style ids share the same representation,
// so it is safe to use as a map key everywhere.
type ChatID string

// FromInt64 converts a raw Telegram chat id to its canonical form.
func FromInt64(id int64) ChatID {
	return ChatID(strconv.FormatInt(id, 10))
}

// Parse validates a textual chat id. Accepts numeric ids and @-prefixed names.
func Parse(s string) (ChatID, bool) {
	if s == "" {
		return "", false
	}
	if s[0] == '@' {
		return ChatID(s), len(s) > 1
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", false
	}
	return ChatID(s), true
}

func (c ChatID) String() string {
	return string(c)
}

// Int64 returns the numeric form of the chat id, or false for
// @-style identifiers.
func (c ChatID) Int64() (int64, bool) {
	id, err := strconv.ParseInt(string(c), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FromUpdate resolves the chat an update belongs to. Updates without an
// associated chat (member changes, polls and so on) resolve to false.
func FromUpdate(update tgbotapi.Update) (ChatID, bool) {
	switch {
	case update.Message != nil:
		return FromInt64(update.Message.Chat.ID), true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return FromInt64(update.CallbackQuery.Message.Chat.ID), true
	}
	return "", false
}

// FromMessageUpdate resolves the chat of a plain message update only.
// Callback queries and other shapes resolve to false; the interaction
// manager uses this so a button press never consumes a pending await.
func FromMessageUpdate(update tgbotapi.Update) (ChatID, bool) {
	if update.Message == nil {
		return "", false
	}
	return FromInt64(update.Message.Chat.ID), true
}
