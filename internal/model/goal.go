package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
)

const (
	GoalTypeSavings          = "savings"
	GoalTypeDebtReduction    = "debt_reduction"
	GoalTypeExpenseReduction = "expense_reduction"
)

type Goal struct {
	ID            string          `db:"id" json:"id"`
	TenantID      string          `db:"tenant_id" json:"tenant_id"`
	AccountID     string          `db:"account_id" json:"account_id"`
	Name          string          `db:"name" json:"name"`
	GoalType      string          `db:"goal_type" json:"goal_type"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	TargetDate    time.Time       `db:"target_date" json:"target_date"`
	Status        string          `db:"status" json:"status"`
	Version       int64           `db:"version" json:"version"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Remaining is the amount still needed to reach the target, never negative.
func (g *Goal) Remaining() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (g *Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}
