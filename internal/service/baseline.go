package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/model"
)

const (
	DefaultBaselineAmount       = 100
	DefaultBaselineWindowMonths = 3
)

// amountScale is the number of decimal places amounts are stored with.
const amountScale = 4

// LineItemReader is the slice of the ledger the baseline needs.
type LineItemReader interface {
	LineItems(ctx context.Context, accountID string, from, to time.Time) ([]*model.JournalItem, error)
}

// BaselineEstimator computes the trailing-average expense on an account, used
// to measure how much an expense-reduction goal saved on a new posting.
type BaselineEstimator struct {
	ledger       LineItemReader
	fallback     decimal.Decimal
	windowMonths int
}

func NewBaselineEstimator(ledger LineItemReader, fallback decimal.Decimal, windowMonths int) *BaselineEstimator {
	if windowMonths < 1 {
		windowMonths = DefaultBaselineWindowMonths
	}
	return &BaselineEstimator{
		ledger:       ledger,
		fallback:     fallback,
		windowMonths: windowMonths,
	}
}

// Baseline averages debit minus credit over the account's posted items in the
// window of calendar months before the entry date. The entry date itself is
// excluded. Without history the configured fallback is returned. The average
// is rounded to amountScale.
func (b *BaselineEstimator) Baseline(ctx context.Context, accountID string, entryDate time.Time) (decimal.Decimal, error) {
	to := startOfDay(entryDate)
	from := to.AddDate(0, -b.windowMonths, 0)

	items, err := b.ledger.LineItems(ctx, accountID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load baseline history: %w", err)
	}

	if len(items) == 0 {
		return b.fallback, nil
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Net())
	}
	return sum.Div(decimal.NewFromInt(int64(len(items)))).Round(amountScale), nil
}

// Reduction is how far the item's expense fell below the baseline, never negative.
func (b *BaselineEstimator) Reduction(ctx context.Context, item *model.JournalItem, entryDate time.Time) (decimal.Decimal, error) {
	baseline, err := b.Baseline(ctx, item.AccountID, entryDate)
	if err != nil {
		return decimal.Zero, err
	}

	reduction := baseline.Sub(item.Net())
	if reduction.IsNegative() {
		return decimal.Zero, nil
	}
	return reduction, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
