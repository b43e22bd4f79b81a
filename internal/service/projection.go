package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/model"
)

// ProjectCompletion estimates when the goal will be reached from its linear
// contribution velocity.
//
// contributions must be the goal's contributions dated on or after its start
// date, oldest first. With fewer than two there is no history to project from
// and the target date is returned unchanged. A nil result means the goal shows
// no forward progress.
func ProjectCompletion(goal *model.Goal, contributions []*model.GoalContribution, now time.Time) *time.Time {
	if len(contributions) < 2 {
		target := goal.TargetDate
		return &target
	}

	total := decimal.Zero
	for _, c := range contributions {
		total = total.Add(c.ContributionAmount)
	}

	first := contributions[0].ContributionDate
	last := contributions[len(contributions)-1].ContributionDate
	months := max(1, monthsSpanned(first, last))

	velocity := total.Div(decimal.NewFromInt(int64(months)))
	if !velocity.IsPositive() {
		return nil
	}

	monthsNeeded := goal.Remaining().Div(velocity).Ceil().IntPart()
	projected := now.AddDate(0, int(monthsNeeded), 0)
	return &projected
}

// monthsSpanned counts the calendar months from first to last, both included:
// two dates in January and February span two months.
func monthsSpanned(first, last time.Time) int {
	first, last = first.UTC(), last.UTC()
	return (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month()) + 1
}
