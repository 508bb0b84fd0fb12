// Package admin tracks chats waiting for admin approval.
package admin

import (
	"time"

	"github.com/zvirja/kindler-bot/internal/chatid"
	"github.com/zvirja/kindler-bot/internal/store"
)

// Request is a pending request for bot access, created the first time an
// unauthorized chat messages the bot.
type Request struct {
	ChatID      chatid.ChatID `json:"chat_id"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RequestStore defines the approval request persistence operations.
type RequestStore interface {
	All() ([]Request, error)
	Get(chatID chatid.ChatID) (*Request, error)
	Add(req Request) error
	Remove(chatID chatid.ChatID) error
	CleanObsolete(olderThan time.Duration) error
}

type requestsDoc struct {
	Requests []Request `json:"requests,omitempty"`
}

// FileRequestStore is a RequestStore backed by a JSON document file.
type FileRequestStore struct {
	doc *store.Store[requestsDoc]
}

// NewFileRequestStore creates a request store backed by the given file path.
func NewFileRequestStore(path string) *FileRequestStore {
	return &FileRequestStore{doc: store.New[requestsDoc](path)}
}

// All returns every pending approval request.
func (s *FileRequestStore) All() ([]Request, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return nil, err
	}
	return doc.Requests, nil
}

// Get returns the pending request for a chat, or nil when none exists.
func (s *FileRequestStore) Get(chatID chatid.ChatID) (*Request, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return nil, err
	}
	for _, req := range doc.Requests {
		if req.ChatID == chatID {
			return &req, nil
		}
	}
	return nil, nil
}

// Add records a pending request. A request for an already-tracked chat is
// dropped, so repeated contact attempts never duplicate.
func (s *FileRequestStore) Add(req Request) error {
	return s.doc.Update(func(doc *requestsDoc) {
		for _, existing := range doc.Requests {
			if existing.ChatID == req.ChatID {
				return
			}
		}
		doc.Requests = append(doc.Requests, req)
	})
}

// Remove drops the pending request for a chat, if any.
func (s *FileRequestStore) Remove(chatID chatid.ChatID) error {
	return s.doc.Update(func(doc *requestsDoc) {
		kept := doc.Requests[:0]
		for _, req := range doc.Requests {
			if req.ChatID != chatID {
				kept = append(kept, req)
			}
		}
		doc.Requests = kept
	})
}

// CleanObsolete drops requests created more than olderThan ago.
func (s *FileRequestStore) CleanObsolete(olderThan time.Duration) error {
	keepAfter := time.Now().Add(-olderThan)
	return s.doc.Update(func(doc *requestsDoc) {
		kept := doc.Requests[:0]
		for _, req := range doc.Requests {
			if req.CreatedAt.After(keepAfter) {
				kept = append(kept, req)
			}
		}
		doc.Requests = kept
	})
}
