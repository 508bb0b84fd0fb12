package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleWebhook is the inbound transport boundary. It checks the URL secret,
// decodes the update and hands it off to a background dispatcher so Telegram
// gets its acknowledgement immediately.
func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.PathValue("signature")
	if subtle.ConstantTimeCompare([]byte(signature), []byte(b.cfg.WebhookSecret)) != 1 {
		b.logger.Warn("rejected webhook request with wrong signature")
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("failed to decode webhook update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.activeUpdates.Add(1)
	go func() {
		defer b.activeUpdates.Done()
		b.HandleUpdate(update)
	}()

	w.WriteHeader(http.StatusOK)
}
