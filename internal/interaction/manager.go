// Package interaction lets a workflow suspend until the next update from a
// chat arrives. At most one waiter exists per chat; registering a new waiter
// cancels the previous one.
package interaction

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

// ErrInterrupted is returned to a waiter superseded by a newer
// AwaitNextUpdate call for the same chat. Callers must treat it as
// "conversation interrupted" and exit without further side effects.
var ErrInterrupted = errors.New("interaction interrupted")

type pending struct {
	ch chan tgbotapi.Update
}

// Manager maps chats to their single pending interaction.
type Manager struct {
	mu      sync.Mutex
	pending map[chatid.ChatID]*pending
}

// NewManager creates an empty interaction manager.
func NewManager() *Manager {
	return &Manager{pending: make(map[chatid.ChatID]*pending)}
}

// AwaitNextUpdate blocks until the next update from the chat arrives, the
// waiter is superseded (ErrInterrupted), or the context is cancelled.
func (m *Manager) AwaitNextUpdate(ctx context.Context, chat chatid.ChatID) (tgbotapi.Update, error) {
	p := &pending{ch: make(chan tgbotapi.Update, 1)}

	m.mu.Lock()
	if prev, ok := m.pending[chat]; ok {
		close(prev.ch)
	}
	m.pending[chat] = p
	m.mu.Unlock()

	select {
	case update, ok := <-p.ch:
		if !ok {
			return tgbotapi.Update{}, ErrInterrupted
		}
		return update, nil

	case <-ctx.Done():
		m.mu.Lock()
		if cur, ok := m.pending[chat]; ok && cur == p {
			delete(m.pending, chat)
		}
		m.mu.Unlock()
		return tgbotapi.Update{}, ctx.Err()
	}
}

// Resume fulfills the pending interaction for the update's chat, if one
// exists, and reports whether it did. Only plain message updates resume an
// interaction; other shapes (button presses, member changes) never do, so
// they stay available for regular dispatch.
func (m *Manager) Resume(update tgbotapi.Update) bool {
	chat, ok := chatid.FromMessageUpdate(update)
	if !ok {
		return false
	}

	m.mu.Lock()
	p, ok := m.pending[chat]
	if ok {
		delete(m.pending, chat)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	p.ch <- update
	return true
}
