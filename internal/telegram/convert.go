package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/zvirja/kindler-bot/internal/chatid"
	apperrors "github.com/zvirja/kindler-bot/internal/errors"
)

// kindleSupportedExts are the formats Kindle accepts as-is, per
// https://www.amazon.com/gp/help/customer/display.html?nodeId=G5WYD9SAF7PGXRNA
// MOBI and AZW are deprecated and deliberately absent.
var kindleSupportedExts = map[string]struct{}{
	".doc": {}, ".docx": {},
	".html": {}, ".htm": {},
	".rtf":  {},
	".txt":  {},
	".jpeg": {}, ".jpg": {},
	".gif":  {},
	".png":  {},
	".bmp":  {},
	".pdf":  {},
	".epub": {},
}

// startConvertWorkflow kicks off the download-convert-email pipeline in the
// background; conversion can take a long time and must not hold up the
// webhook response.
func (b *Bot) startConvertWorkflow(chat *tgbotapi.Chat, doc *tgbotapi.Document) {
	chatID := chatid.FromInt64(chat.ID)

	email, err := b.settings.ChatEmail(chatID)
	if err != nil {
		b.logger.Error("failed to read chat email", "error", err, "chat_id", chat.ID)
		b.sendText(chat.ID, fmt.Sprintf("❌ Failed to read configuration: %v", err))
		return
	}
	if email == "" {
		b.sendText(chat.ID, apperrors.ErrEmailNotConfigured.UserMsg)
		return
	}

	if !b.convLimiter.TryAcquire(chatID) {
		b.sendText(chat.ID, "You already have a conversion in progress. Please wait for it to complete.")
		return
	}

	b.activeUpdates.Add(1)
	go func() {
		defer b.activeUpdates.Done()
		defer b.convLimiter.Release(chatID)
		b.convertWorkflow(context.Background(), chat, doc, email)
	}()
}

func (b *Bot) convertWorkflow(ctx context.Context, chat *tgbotapi.Chat, doc *tgbotapi.Document, email string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic in convert workflow", "panic", r)
			b.sendText(chat.ID, fmt.Sprintf("❌ Unexpected bot error when converting and sending book: %v", r))
		}
	}()

	workDir := filepath.Join(os.TempDir(), fmt.Sprintf("kindler_%d_%s", chat.ID, uuid.NewString()))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		b.logger.Error("failed to create work dir", "error", err)
		b.sendText(chat.ID, fmt.Sprintf("❌ Unexpected bot error when converting and sending book: %v", err))
		return
	}
	if !b.debugCfg.KeepConversionWorkDir {
		defer os.RemoveAll(workDir)
	}

	b.sendText(chat.ID, "⏬ Downloading file...")
	sourcePath := filepath.Join(workDir, doc.FileName)
	if err := b.downloadDocument(ctx, doc, sourcePath); err != nil {
		b.logger.Error("failed to download document", "error", err, "chat_id", chat.ID)
		b.sendText(chat.ID, fmt.Sprintf("❌ Failed to download file: %v", err))
		return
	}
	b.sendText(chat.ID, "✅ Downloaded!")

	if info, result := b.converter.GetBookInfo(ctx, sourcePath); result.OK() {
		b.sendText(chat.ID, fmt.Sprintf("📖 Book info\nTitle: %s\nAuthor: %s", info.Title, info.Author))
	} else {
		b.sendText(chat.ID, fmt.Sprintf("⚠ Unable to get book metadata from the file you sent. Error: %s", result.Err))
	}

	coverPath := sourcePath + ".cover.jpg"
	if result := b.converter.ExportCover(ctx, sourcePath, coverPath); result.OK() {
		photo := tgbotapi.NewPhoto(chat.ID, tgbotapi.FilePath(coverPath))
		if _, err := b.api.Send(photo); err != nil {
			b.logger.Error("failed to send cover photo", "error", err, "chat_id", chat.ID)
		}
	}

	sendPath := sourcePath
	converted := false
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if _, native := kindleSupportedExts[ext]; native {
		b.sendText(chat.ID, fmt.Sprintf("ℹ Conversion skipped for %s", filepath.Ext(doc.FileName)))
	} else {
		b.sendText(chat.ID, "🔃 Converting book...")

		sendPath = sourcePath + ".epub"
		converted = true
		if result := b.converter.ConvertBook(ctx, sourcePath, sendPath); result.OK() {
			b.sendText(chat.ID, "✔ Converted to KINDLE (.epub) format!")
		} else {
			b.sendText(chat.ID, fmt.Sprintf("😢 Conversion failed. Error: %s", result.Err))
			return
		}
	}

	b.sendText(chat.ID, "💌 Sending to your Kindle device...")
	if err := b.sender.Send(ctx, sendPath, email); err != nil {
		b.logger.Error("failed to send book by email", "error", err, "chat_id", chat.ID)
		b.sendText(chat.ID, apperrors.GetUserMessage(err))
		return
	}

	b.sendText(chat.ID, "🎉 Successfully sent your book!")

	if converted {
		b.logger.Info("converted and sent book", "book", doc.FileName, "user", chat.UserName)
	} else {
		b.logger.Info("sent book without conversion", "book", doc.FileName, "user", chat.UserName)
	}
}

// downloadDocument fetches the document from Telegram into destPath.
func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document, destPath string) error {
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
