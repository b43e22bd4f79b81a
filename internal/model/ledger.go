package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger records are owned by the accounting system. The engine only reads them.

const (
	NormalBalanceDebit  = "debit"
	NormalBalanceCredit = "credit"
)

const (
	JournalEntryStatusDraft  = "draft"
	JournalEntryStatusPosted = "posted"
)

type Account struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenant_id"`
	Name          string    `db:"name" json:"name"`
	NormalBalance string    `db:"normal_balance" json:"normal_balance"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type JournalEntry struct {
	ID        string         `db:"id" json:"id"`
	TenantID  string         `db:"tenant_id" json:"tenant_id"`
	EntryDate time.Time      `db:"entry_date" json:"entry_date"`
	Status    string         `db:"status" json:"status"`
	PostedAt  *time.Time     `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	Items     []*JournalItem `db:"-" json:"items"`
}

// AccountIDs returns the distinct accounts touched by the entry, in item order.
func (e *JournalEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Items))
	var ids []string
	for _, item := range e.Items {
		if seen[item.AccountID] {
			continue
		}
		seen[item.AccountID] = true
		ids = append(ids, item.AccountID)
	}
	return ids
}

type JournalItem struct {
	ID             string          `db:"id" json:"id"`
	JournalEntryID string          `db:"journal_entry_id" json:"journal_entry_id"`
	AccountID      string          `db:"account_id" json:"account_id"`
	Debit          decimal.Decimal `db:"debit" json:"debit"`
	Credit         decimal.Decimal `db:"credit" json:"credit"`
	EntryDate      time.Time       `db:"entry_date" json:"entry_date"`
}

// Net is debit minus credit.
func (i *JournalItem) Net() decimal.Decimal {
	return i.Debit.Sub(i.Credit)
}
