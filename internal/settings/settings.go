// Package settings holds the persisted bot configuration: the admin chat,
// the allowed chat list and per-chat Kindle email addresses.
package settings

import (
	"fmt"

	"github.com/zvirja/kindler-bot/internal/chatid"
	"github.com/zvirja/kindler-bot/internal/store"
)

// AllowedChat is a chat permitted to use the bot.
type AllowedChat struct {
	ChatID      chatid.ChatID `json:"chat_id"`
	Description string        `json:"description,omitempty"`
}

// Document is the on-disk shape of the bot configuration.
type Document struct {
	AdminChatID  chatid.ChatID     `json:"admin_chat_id,omitempty"`
	ChatEmails   map[string]string `json:"chat_emails,omitempty"`
	AllowedChats []AllowedChat     `json:"allowed_chats,omitempty"`
	LastVersion  string            `json:"last_version,omitempty"`
}

// Store defines the persisted bot configuration operations.
type Store interface {
	ChatEmail(chatID chatid.ChatID) (string, error)
	SetChatEmail(chatID chatid.ChatID, email string) error

	AllowedChats() ([]AllowedChat, error)
	AddAllowedChat(chat AllowedChat) error
	RemoveAllowedChat(chatID chatid.ChatID) error

	AdminChatID() (chatid.ChatID, error)

	LastVersion() (string, error)
	SetLastVersion(version string) error
}

// FileStore is a Store backed by a JSON document file.
type FileStore struct {
	doc *store.Store[Document]
}

// NewFileStore creates a settings store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{doc: store.New[Document](path)}
}

// ChatEmail returns the configured Kindle email for a chat, or "" when unset.
func (s *FileStore) ChatEmail(chatID chatid.ChatID) (string, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return "", err
	}
	return doc.ChatEmails[chatID.String()], nil
}

// SetChatEmail upserts the Kindle email for a chat.
func (s *FileStore) SetChatEmail(chatID chatid.ChatID, email string) error {
	return s.doc.Update(func(doc *Document) {
		if doc.ChatEmails == nil {
			doc.ChatEmails = make(map[string]string)
		}
		doc.ChatEmails[chatID.String()] = email
	})
}

// AllowedChats returns all chats permitted to use the bot.
func (s *FileStore) AllowedChats() ([]AllowedChat, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return nil, err
	}
	return doc.AllowedChats, nil
}

// AddAllowedChat permits a chat. Adding an already-present chat is a no-op,
// keeping the first-seen description.
func (s *FileStore) AddAllowedChat(chat AllowedChat) error {
	if chat.ChatID == "" {
		return fmt.Errorf("allowed chat requires a chat id")
	}
	return s.doc.Update(func(doc *Document) {
		for _, existing := range doc.AllowedChats {
			if existing.ChatID == chat.ChatID {
				return
			}
		}
		doc.AllowedChats = append(doc.AllowedChats, chat)
	})
}

// RemoveAllowedChat revokes a chat. Removing an absent chat is a no-op.
func (s *FileStore) RemoveAllowedChat(chatID chatid.ChatID) error {
	return s.doc.Update(func(doc *Document) {
		kept := doc.AllowedChats[:0]
		for _, chat := range doc.AllowedChats {
			if chat.ChatID != chatID {
				kept = append(kept, chat)
			}
		}
		doc.AllowedChats = kept
	})
}

// AdminChatID returns the configured admin chat, or "" when unset.
func (s *FileStore) AdminChatID() (chatid.ChatID, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return "", err
	}
	return doc.AdminChatID, nil
}

// LastVersion returns the last application version seen by this deployment.
func (s *FileStore) LastVersion() (string, error) {
	doc, err := s.doc.Read()
	if err != nil {
		return "", err
	}
	return doc.LastVersion, nil
}

// SetLastVersion records the running application version.
func (s *FileStore) SetLastVersion(version string) error {
	return s.doc.Update(func(doc *Document) {
		doc.LastVersion = version
	})
}
