// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalflow/internal/db"
	"github.com/templui/goalflow/internal/model"
)

const memoryDSN = ":memory:"

// New returns a fresh database with all migrations applied. It is closed
// when the test finishes.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", memoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

// SeedAccount writes a ledger account. The engine never writes ledger rows,
// so tests stand in for the accounting system.
func SeedAccount(t testing.TB, database *sqlx.DB, accountID, tenantID, normalBalance string) *model.Account {
	t.Helper()

	account := &model.Account{
		ID:            accountID,
		TenantID:      tenantID,
		Name:          accountID,
		NormalBalance: normalBalance,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := database.Exec(`INSERT INTO accounts (id, tenant_id, name, normal_balance, created_at) VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.TenantID, account.Name, account.NormalBalance, account.CreatedAt)
	require.NoError(t, err)

	return account
}

// SeedEntry writes a journal entry with its items. Missing IDs are generated
// and an empty status means posted.
func SeedEntry(t testing.TB, database *sqlx.DB, entry *model.JournalEntry) *model.JournalEntry {
	t.Helper()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = model.JournalEntryStatusPosted
	}
	entry.EntryDate = entry.EntryDate.UTC()
	if entry.Status == model.JournalEntryStatusPosted && entry.PostedAt == nil {
		posted := entry.EntryDate
		entry.PostedAt = &posted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.EntryDate
	}

	_, err := database.Exec(`INSERT INTO journal_entries (id, tenant_id, entry_date, status, posted_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.TenantID, entry.EntryDate, entry.Status, entry.PostedAt, entry.CreatedAt)
	require.NoError(t, err)

	for _, item := range entry.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.JournalEntryID = entry.ID
		item.EntryDate = entry.EntryDate

		_, err := database.Exec(`INSERT INTO journal_items (id, journal_entry_id, account_id, debit, credit) VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.JournalEntryID, item.AccountID, item.Debit, item.Credit)
		require.NoError(t, err)
	}

	return entry
}
