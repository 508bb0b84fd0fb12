// Package limiter bounds concurrent conversions.
package limiter

import (
	"sync"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

// ChatLimiter allows at most one running conversion per chat, with an
// optional global cap.
type ChatLimiter struct {
	mu          sync.Mutex
	activeChats map[chatid.ChatID]struct{}
	maxGlobal   int
	globalCount int
}

// NewChatLimiter creates a limiter. maxGlobalConcurrent of 0 means no global
// cap, only the per-chat one.
func NewChatLimiter(maxGlobalConcurrent int) *ChatLimiter {
	return &ChatLimiter{
		activeChats: make(map[chatid.ChatID]struct{}),
		maxGlobal:   maxGlobalConcurrent,
	}
}

// TryAcquire attempts to claim the conversion slot for a chat. It reports
// false when the chat already has a running conversion or the global cap is
// reached.
func (l *ChatLimiter) TryAcquire(chat chatid.ChatID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.activeChats[chat]; exists {
		return false
	}

	if l.maxGlobal > 0 && l.globalCount >= l.maxGlobal {
		return false
	}

	l.activeChats[chat] = struct{}{}
	l.globalCount++
	return true
}

// Release frees the chat's conversion slot.
func (l *ChatLimiter) Release(chat chatid.ChatID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.activeChats[chat]; exists {
		delete(l.activeChats, chat)
		l.globalCount--
	}
}

// ActiveCount returns the number of running conversions.
func (l *ChatLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.globalCount
}
