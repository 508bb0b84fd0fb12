// Package auth gates incoming updates on the allowed chat list and manages
// the approval request lifecycle.
package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/admin"
	"github.com/zvirja/kindler-bot/internal/chatid"
	"github.com/zvirja/kindler-bot/internal/settings"
)

// ChatAuthorization decides whether a chat may use the bot and tracks
// approval requests from chats that may not.
type ChatAuthorization struct {
	settings settings.Store
	requests admin.RequestStore
	enabled  bool
	logger   *slog.Logger

	mu         sync.Mutex
	authorized map[chatid.ChatID]struct{} // nil until first use, reset on mutation
}

// New creates a ChatAuthorization over the given stores. When enabled is
// false the gate admits every update.
func New(settingsStore settings.Store, requests admin.RequestStore, enabled bool, logger *slog.Logger) *ChatAuthorization {
	return &ChatAuthorization{
		settings: settingsStore,
		requests: requests,
		enabled:  enabled,
		logger:   logger,
	}
}

// IsAuthorized reports whether the update comes from an allowed chat or the
// admin chat. Updates without a resolvable chat are rejected.
func (a *ChatAuthorization) IsAuthorized(update tgbotapi.Update) (bool, error) {
	if !a.enabled {
		return true, nil
	}
	chatID, ok := chatid.FromUpdate(update)
	if !ok {
		return false, nil
	}
	return a.IsChatAuthorized(chatID)
}

// IsChatAuthorized reports whether the chat is allowed or is the admin chat.
func (a *ChatAuthorization) IsChatAuthorized(chatID chatid.ChatID) (bool, error) {
	if !a.enabled {
		return true, nil
	}

	authorized, err := a.authorizedSet()
	if err != nil {
		return false, err
	}

	_, ok := authorized[chatID]
	return ok, nil
}

// IsAdminChat reports whether the update comes from the configured admin
// chat. False, not an error, when no admin is configured.
func (a *ChatAuthorization) IsAdminChat(update tgbotapi.Update) (bool, error) {
	chatID, ok := chatid.FromUpdate(update)
	if !ok {
		return false, nil
	}

	adminChatID, err := a.settings.AdminChatID()
	if err != nil {
		return false, err
	}
	return adminChatID != "" && chatID == adminChatID, nil
}

// TrackUnauthorized records a contact attempt from an unauthorized chat as a
// pending approval request. Only plain message updates are tracked: the first
// contact is a text command by protocol convention, and button presses carry
// no useful first-contact intent. Repeated attempts from the same chat never
// duplicate the request.
func (a *ChatAuthorization) TrackUnauthorized(update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	chatID := chatid.FromInt64(update.Message.Chat.ID)

	err := a.requests.Add(admin.Request{
		ChatID:      chatID,
		Description: DescribeChat(update.Message.Chat),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("track unauthorized chat %s: %w", chatID, err)
	}

	a.logger.Info("tracked approval request from unauthorized chat", "chat_id", chatID)
	return nil
}

// AuthorizeChat allows a chat, drops its pending approval request and
// invalidates the authorization cache.
func (a *ChatAuthorization) AuthorizeChat(chatID chatid.ChatID, description string) error {
	if err := a.settings.AddAllowedChat(settings.AllowedChat{ChatID: chatID, Description: description}); err != nil {
		return fmt.Errorf("authorize chat %s: %w", chatID, err)
	}
	if err := a.requests.Remove(chatID); err != nil {
		return fmt.Errorf("remove approval request for %s: %w", chatID, err)
	}

	a.invalidateCache()
	return nil
}

// RevokeChatAuthorization disallows a chat, drops its pending approval
// request and invalidates the authorization cache. Revoking a chat that was
// never allowed is a no-op.
func (a *ChatAuthorization) RevokeChatAuthorization(chatID chatid.ChatID) error {
	if err := a.settings.RemoveAllowedChat(chatID); err != nil {
		return fmt.Errorf("revoke chat %s: %w", chatID, err)
	}
	if err := a.requests.Remove(chatID); err != nil {
		return fmt.Errorf("remove approval request for %s: %w", chatID, err)
	}

	a.invalidateCache()
	return nil
}

// AllAllowedChats returns the allowed chat list for admin review.
func (a *ChatAuthorization) AllAllowedChats() ([]settings.AllowedChat, error) {
	return a.settings.AllowedChats()
}

// AllApprovalRequests returns the pending approval requests for admin review.
func (a *ChatAuthorization) AllApprovalRequests() ([]admin.Request, error) {
	return a.requests.All()
}

// ApprovalRequest returns the pending approval request for a chat, or nil.
func (a *ChatAuthorization) ApprovalRequest(chatID chatid.ChatID) (*admin.Request, error) {
	return a.requests.Get(chatID)
}

func (a *ChatAuthorization) authorizedSet() (map[chatid.ChatID]struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.authorized != nil {
		return a.authorized, nil
	}

	allowed, err := a.settings.AllowedChats()
	if err != nil {
		return nil, err
	}

	set := make(map[chatid.ChatID]struct{}, len(allowed)+1)
	for _, chat := range allowed {
		set[chat.ChatID] = struct{}{}
	}

	adminChatID, err := a.settings.AdminChatID()
	if err != nil {
		return nil, err
	}
	if adminChatID != "" {
		set[adminChatID] = struct{}{}
	}

	a.authorized = set
	return set, nil
}

func (a *ChatAuthorization) invalidateCache() {
	a.mu.Lock()
	a.authorized = nil
	a.mu.Unlock()
}

// DescribeChat builds a human-readable chat description from profile fields,
// preferring the display name and falling back to the username.
func DescribeChat(chat *tgbotapi.Chat) string {
	name := strings.TrimSpace(strings.TrimSpace(chat.FirstName) + " " + strings.TrimSpace(chat.LastName))
	if name != "" {
		return name
	}
	if chat.UserName != "" {
		return chat.UserName
	}
	return chat.Title
}
