package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	return NewFileStore(path), path
}

func TestChatEmail_UnsetReturnsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	email, err := s.ChatEmail(chatid.FromInt64(42))
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestSetChatEmail_Upserts(t *testing.T) {
	s, _ := newTestStore(t)
	chat := chatid.FromInt64(42)

	require.NoError(t, s.SetChatEmail(chat, "first@kindle.com"))
	require.NoError(t, s.SetChatEmail(chat, "second@kindle.com"))

	email, err := s.ChatEmail(chat)
	require.NoError(t, err)
	assert.Equal(t, "second@kindle.com", email)

	// Another chat is unaffected.
	other, err := s.ChatEmail(chatid.FromInt64(7))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAddAllowedChat_KeepsFirstDescription(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.AddAllowedChat(AllowedChat{ChatID: "42", Description: "John Smith"}))
	require.NoError(t, s.AddAllowedChat(AllowedChat{ChatID: "42", Description: "renamed"}))

	chats, err := s.AllowedChats()
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "John Smith", chats[0].Description)
}

func TestAddAllowedChat_RequiresChatID(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.AddAllowedChat(AllowedChat{Description: "no id"}))
}

func TestRemoveAllowedChat(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.AddAllowedChat(AllowedChat{ChatID: "42"}))
	require.NoError(t, s.AddAllowedChat(AllowedChat{ChatID: "@channel"}))

	require.NoError(t, s.RemoveAllowedChat("42"))

	chats, err := s.AllowedChats()
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, chatid.ChatID("@channel"), chats[0].ChatID)

	// Removing an absent chat is a no-op.
	require.NoError(t, s.RemoveAllowedChat("42"))
}

func TestLastVersion_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	v, err := s.LastVersion()
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetLastVersion("1.2.3"))

	v, err = s.LastVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.SetChatEmail(chatid.FromInt64(42), "me@kindle.com"))
	require.NoError(t, s.AddAllowedChat(AllowedChat{ChatID: "42", Description: "me"}))
	require.NoError(t, s.SetLastVersion("2.0.0"))

	reopened := NewFileStore(path)

	email, err := reopened.ChatEmail(chatid.FromInt64(42))
	require.NoError(t, err)
	assert.Equal(t, "me@kindle.com", email)

	chats, err := reopened.AllowedChats()
	require.NoError(t, err)
	require.Len(t, chats, 1)

	v, err := reopened.LastVersion()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v)
}

func TestAdminChatID_ReadFromEditedFile(t *testing.T) {
	// The admin chat has no setter; operators configure it by editing the
	// file directly.
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"admin_chat_id": "100500"}`), 0o644))

	admin, err := NewFileStore(path).AdminChatID()
	require.NoError(t, err)
	assert.Equal(t, chatid.ChatID("100500"), admin)
}
