package service

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/model"
)

var hundred = decimal.NewFromInt(100)

// buildSnapshot derives the next tracking row for a goal whose
// current_amount already includes the latest contribution. previous is the
// goal's last snapshot, or nil for the first one.
func buildSnapshot(goal *model.Goal, previous *model.GoalTracking, projected *time.Time, actorID string, now time.Time) *model.GoalTracking {
	previousAmount := decimal.Zero
	if previous != nil {
		previousAmount = previous.CurrentAmount
	}

	// TODO: derive from the projection against target_date once product defines "behind".
	onTrack := model.OnTrackStatusOnTrack

	return &model.GoalTracking{
		ID:                      uuid.New().String(),
		GoalID:                  goal.ID,
		TenantID:                goal.TenantID,
		TrackingDate:            now,
		PreviousAmount:          previousAmount,
		ContributionAmount:      goal.CurrentAmount.Sub(previousAmount),
		CurrentAmount:           goal.CurrentAmount,
		ProgressPercentage:      progressPercentage(goal.CurrentAmount, goal.TargetAmount),
		DaysRemaining:           daysBetween(now, goal.TargetDate),
		ProjectedCompletionDate: projected,
		OnTrackStatus:           onTrack,
		CreatedBy:               actorID,
		CreatedAt:               now,
	}
}

func progressPercentage(current, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	return current.Div(target).Mul(hundred).Round(4)
}

// daysBetween counts calendar days from from to to. It is negative when to
// is already past.
func daysBetween(from, to time.Time) int {
	return int(math.Round(startOfDay(to).Sub(startOfDay(from)).Hours() / 24))
}
