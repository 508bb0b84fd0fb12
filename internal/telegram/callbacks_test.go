package telegram

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvirja/kindler-bot/internal/chatid"
)

func TestApprovalCallback_RoundTrip(t *testing.T) {
	testCases := []struct {
		name        string
		reply       approvalReply
		chatID      chatid.ChatID
		description string
	}{
		{"allow numeric chat", replyAllow, "42", "John Smith"},
		{"deny numeric chat", replyDeny, "-100123", "Book club"},
		{"chat id with delimiter", replyAllow, "@user_name_long", "desc"},
		{"empty description", replyDeny, "42", ""},
		{"description with delimiter and unicode", replyAllow, "42", "élan_vital ❤"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeApprovalCallback(tc.reply, tc.chatID, tc.description)

			reply, chatID, description, err := decodeApprovalCallback(data)
			require.NoError(t, err)
			assert.Equal(t, tc.reply, reply)
			assert.Equal(t, tc.chatID, chatID)
			assert.Equal(t, tc.description, description)
		})
	}
}

func TestDecodeApprovalCallback_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"wrong prefix", "/something/else/Allow_42_"},
		{"missing fields", approvalCallbackPrefix + "Allow"},
		{"unknown reply", approvalCallbackPrefix + "Maybe_42_"},
		{"bad chat id", approvalCallbackPrefix + "Allow_notachat_"},
		{"bad description encoding", approvalCallbackPrefix + "Allow_42_!!!not-base64!!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := decodeApprovalCallback(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestApprovalCallback_FitsTelegramPayloadLimit(t *testing.T) {
	// Telegram caps callback data at 64 bytes; the encoder truncates the
	// description to stay under it.
	data := encodeApprovalCallback(replyAllow, "-1001234567890", "John Smith")
	assert.LessOrEqual(t, len(data), 64)

	long := encodeApprovalCallback(replyAllow, "-1001234567890",
		"Собеседник с непомерно длинным именем и фамилией")
	assert.LessOrEqual(t, len(long), 64)

	reply, chatID, desc, err := decodeApprovalCallback(long)
	require.NoError(t, err)
	assert.Equal(t, replyAllow, reply)
	assert.Equal(t, chatid.ChatID("-1001234567890"), chatID)
	assert.True(t, utf8.ValidString(desc))
}
