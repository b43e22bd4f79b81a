package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/model"
)

// ContributionCalculator turns one posted journal entry into the contribution
// it makes to a goal.
type ContributionCalculator struct {
	baseline *BaselineEstimator
}

func NewContributionCalculator(baseline *BaselineEstimator) *ContributionCalculator {
	return &ContributionCalculator{baseline: baseline}
}

// Calculate sums the signed movement of every item on the goal's account:
//
//	savings on a credit-normal account          credit - debit
//	debt reduction on a credit-normal account   debit - credit
//	expense reduction on a debit-normal account baseline - (debit - credit), floored at 0
//
// Any other combination adds nothing. A negative total yields zero; outflows
// are not refunded from the goal. The total is rounded to amountScale.
func (c *ContributionCalculator) Calculate(ctx context.Context, goal *model.Goal, account *model.Account, entry *model.JournalEntry) (decimal.Decimal, error) {
	total := decimal.Zero

	for _, item := range entry.Items {
		if item.AccountID != goal.AccountID {
			continue
		}

		switch {
		case goal.GoalType == model.GoalTypeSavings && account.NormalBalance == model.NormalBalanceCredit:
			total = total.Add(item.Credit.Sub(item.Debit))
		case goal.GoalType == model.GoalTypeDebtReduction && account.NormalBalance == model.NormalBalanceCredit:
			total = total.Add(item.Debit.Sub(item.Credit))
		case goal.GoalType == model.GoalTypeExpenseReduction && account.NormalBalance == model.NormalBalanceDebit:
			reduction, err := c.baseline.Reduction(ctx, item, entry.EntryDate)
			if err != nil {
				return decimal.Zero, fmt.Errorf("failed to estimate expense reduction: %w", err)
			}
			total = total.Add(reduction)
		}
	}

	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total.Round(amountScale), nil
}
