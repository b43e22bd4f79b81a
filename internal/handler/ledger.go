package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/goalflow/internal/service"
	"github.com/templui/goalflow/internal/validation"
)

type LedgerHandler struct {
	webhookService *service.LedgerWebhookService
}

func NewLedgerHandler(webhookService *service.LedgerWebhookService) *LedgerHandler {
	return &LedgerHandler{
		webhookService: webhookService,
	}
}

// Webhook accepts posted journal entries. Failures in goal processing answer
// 500 so the sender retries; redelivery is safe because contributions are
// keyed by entry.
func (h *LedgerHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read payload"})
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.webhookService.HandleWebhook(r.Context(), payload, r.Header)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) || errors.Is(err, validation.ErrInvalidInput) {
			slog.Warn("rejected ledger webhook", "error", err)
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
