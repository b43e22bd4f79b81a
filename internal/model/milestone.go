package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MilestoneStatusPending  = "pending"
	MilestoneStatusAchieved = "achieved"
)

// GoalMilestone is an ordered sub-target of a goal. Sequence is the
// allocation priority: lower sequences are filled first.
type GoalMilestone struct {
	ID             string          `db:"id" json:"id"`
	GoalID         string          `db:"goal_id" json:"goal_id"`
	Sequence       int             `db:"sequence" json:"sequence"`
	Title          string          `db:"title" json:"title"`
	TargetAmount   decimal.Decimal `db:"target_amount" json:"target_amount"`
	AchievedAmount decimal.Decimal `db:"achieved_amount" json:"achieved_amount"`
	Status         string          `db:"status" json:"status"`
	AchievedDate   *time.Time      `db:"achieved_date" json:"achieved_date,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (m *GoalMilestone) Gap() decimal.Decimal {
	return m.TargetAmount.Sub(m.AchievedAmount)
}
