package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/templui/goalflow/internal/ctxkeys"
	"github.com/templui/goalflow/internal/model"
	"github.com/templui/goalflow/internal/validation"
)

const EventLedgerEntryPosted = "ledger.entry.posted"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// LedgerWebhookService receives posted journal entries pushed by the
// accounting system and feeds them to the goal engine.
type LedgerWebhookService struct {
	goals  *GoalService
	secret string
}

func NewLedgerWebhookService(goals *GoalService, secret string) *LedgerWebhookService {
	return &LedgerWebhookService{
		goals:  goals,
		secret: secret,
	}
}

type ledgerItemPayload struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type ledgerEntryPayload struct {
	ID        string              `json:"id"`
	TenantID  string              `json:"tenant_id"`
	EntryDate string              `json:"entry_date"`
	Items     []ledgerItemPayload `json:"items"`
}

func (s *LedgerWebhookService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if s.secret == "" {
		slog.Warn("ledger no webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(s.secret))
		if err != nil {
			return fmt.Errorf("failed to create webhook verifier: %w", err)
		}

		err = wh.Verify(payload, headers)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("%w: failed to parse webhook: %w", validation.ErrInvalidInput, err)
	}

	slog.Info("ledger webhook received", "event_type", event.Type, "webhook_id", headers.Get("webhook-id"))

	switch event.Type {
	case EventLedgerEntryPosted:
		return s.handleEntryPosted(ctx, event.Data)
	default:
		slog.Warn("ledger webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

func (s *LedgerWebhookService) handleEntryPosted(ctx context.Context, data json.RawMessage) error {
	entry, err := parseLedgerEntry(data)
	if err != nil {
		return err
	}

	actorID := ctxkeys.Actor(ctx)
	if actorID == "" {
		actorID = ctxkeys.SystemActor
	}

	return s.goals.ProcessLedgerEntry(ctx, actorID, entry)
}

func parseLedgerEntry(data json.RawMessage) (*model.JournalEntry, error) {
	var payload ledgerEntryPayload
	err := json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse journal entry: %w", validation.ErrInvalidInput, err)
	}

	if payload.ID == "" || payload.TenantID == "" {
		return nil, fmt.Errorf("%w: journal entry id and tenant_id are required", validation.ErrInvalidInput)
	}

	entryDate, err := ParseDate(payload.EntryDate)
	if err != nil {
		return nil, err
	}

	entry := &model.JournalEntry{
		ID:        payload.ID,
		TenantID:  payload.TenantID,
		EntryDate: entryDate,
		Status:    model.JournalEntryStatusPosted,
		Items:     make([]*model.JournalItem, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		if item.AccountID == "" {
			return nil, fmt.Errorf("%w: journal item account_id is required", validation.ErrInvalidInput)
		}
		entry.Items = append(entry.Items, &model.JournalItem{
			ID:             item.ID,
			JournalEntryID: payload.ID,
			AccountID:      item.AccountID,
			Debit:          item.Debit,
			Credit:         item.Credit,
			EntryDate:      entryDate,
		})
	}

	return entry, nil
}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", validation.ErrInvalidInput, value)
}
