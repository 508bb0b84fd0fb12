// Package mail delivers converted books straight over SMTP, as an
// alternative to shelling out to calibre-smtp.
package mail

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/gomail.v2"

	"github.com/zvirja/kindler-bot/internal/config"
	apperrors "github.com/zvirja/kindler-bot/internal/errors"
)

// Sender mails a file as an attachment to a recipient.
type Sender interface {
	Send(ctx context.Context, attachmentPath, to string) error
}

// SMTPSender sends books through an SMTP relay using gomail.
type SMTPSender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPSender creates a direct SMTP sender from the relay configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.RelayServer, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send mails the file to the recipient. The subject is the file name, which
// is what Kindle shows in the library.
func (s *SMTPSender) Send(ctx context.Context, attachmentPath, to string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", filepath.Base(attachmentPath))
	m.SetBody("text/plain", "Send to kindle")
	m.Attach(attachmentPath)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return apperrors.Wrap(
				fmt.Errorf("send mail to %s: %w", to, err),
				fmt.Sprintf("😢 Failed to send to Kindle. Error: %v", err))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
