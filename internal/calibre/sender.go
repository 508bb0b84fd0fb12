package calibre

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/zvirja/kindler-bot/internal/errors"
)

// EmailSender adapts calibre-smtp delivery to the mail sender contract.
type EmailSender struct {
	Client *Client
}

// Send mails the file via calibre-smtp.
func (s EmailSender) Send(ctx context.Context, attachmentPath, to string) error {
	if result := s.Client.SendByEmail(ctx, attachmentPath, to); !result.OK() {
		return apperrors.Wrap(
			errors.New(result.Err),
			fmt.Sprintf("😢 Failed to send to Kindle. Error: %s", result.Err))
	}
	return nil
}
