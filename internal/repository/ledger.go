package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/templui/goalflow/internal/model"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrJournalEntryNotFound = errors.New("journal entry not found")
)

// LedgerRepository reads the accounting system's posted entries. It never writes.
type LedgerRepository interface {
	Account(ctx context.Context, accountID string) (*model.Account, error)
	Entry(ctx context.Context, entryID string) (*model.JournalEntry, error)
	LineItems(ctx context.Context, accountID string, from, to time.Time) ([]*model.JournalItem, error)
	PostedEntriesSince(ctx context.Context, since time.Time) ([]*model.JournalEntry, error)
}

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Account(ctx context.Context, accountID string) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT * FROM accounts WHERE id = $1`

	err := r.db.GetContext(ctx, account, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *ledgerRepository) Entry(ctx context.Context, entryID string) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	query := `SELECT * FROM journal_entries WHERE id = $1`

	err := r.db.GetContext(ctx, entry, query, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJournalEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Items, err = r.entryItems(ctx, entry)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// LineItems returns posted items on the account whose entry date falls in [from, to).
func (r *ledgerRepository) LineItems(ctx context.Context, accountID string, from, to time.Time) ([]*model.JournalItem, error) {
	var items []*model.JournalItem
	query := `SELECT ji.id, ji.journal_entry_id, ji.account_id, ji.debit, ji.credit, je.entry_date
	          FROM journal_items ji
	          JOIN journal_entries je ON je.id = ji.journal_entry_id
	          WHERE ji.account_id = $1 AND je.status = $2 AND je.entry_date >= $3 AND je.entry_date < $4
	          ORDER BY je.entry_date ASC`

	err := r.db.SelectContext(ctx, &items, query, accountID, model.JournalEntryStatusPosted, from, to)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// PostedEntriesSince returns posted entries with their items, oldest posting first.
func (r *ledgerRepository) PostedEntriesSince(ctx context.Context, since time.Time) ([]*model.JournalEntry, error) {
	var entries []*model.JournalEntry
	query := `SELECT * FROM journal_entries
	          WHERE status = $1 AND posted_at >= $2
	          ORDER BY posted_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &entries, query, model.JournalEntryStatusPosted, since)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		entry.Items, err = r.entryItems(ctx, entry)
		if err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (r *ledgerRepository) entryItems(ctx context.Context, entry *model.JournalEntry) ([]*model.JournalItem, error) {
	var items []*model.JournalItem
	query := `SELECT id, journal_entry_id, account_id, debit, credit FROM journal_items
	          WHERE journal_entry_id = $1 ORDER BY id ASC`

	err := r.db.SelectContext(ctx, &items, query, entry.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		item.EntryDate = entry.EntryDate
	}
	return items, nil
}
