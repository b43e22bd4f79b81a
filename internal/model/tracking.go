package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OnTrackStatusOnTrack = "on_track"
)

// GoalTracking is an append-only progress snapshot taken after every
// accepted contribution.
type GoalTracking struct {
	ID                      string          `db:"id" json:"id"`
	GoalID                  string          `db:"goal_id" json:"goal_id"`
	TenantID                string          `db:"tenant_id" json:"tenant_id"`
	TrackingDate            time.Time       `db:"tracking_date" json:"tracking_date"`
	PreviousAmount          decimal.Decimal `db:"previous_amount" json:"previous_amount"`
	ContributionAmount      decimal.Decimal `db:"contribution_amount" json:"contribution_amount"`
	CurrentAmount           decimal.Decimal `db:"current_amount" json:"current_amount"`
	ProgressPercentage      decimal.Decimal `db:"progress_percentage" json:"progress_percentage"`
	DaysRemaining           int             `db:"days_remaining" json:"days_remaining"`
	ProjectedCompletionDate *time.Time      `db:"projected_completion_date" json:"projected_completion_date,omitempty"`
	OnTrackStatus           string          `db:"on_track_status" json:"on_track_status"`
	CreatedBy               string          `db:"created_by" json:"created_by"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
}
