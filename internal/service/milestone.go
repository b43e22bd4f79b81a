package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/model"
)

// MilestoneChange records one milestone whose allocation differs after a
// reconciliation pass.
type MilestoneChange struct {
	MilestoneID  string          `json:"milestone_id"`
	Sequence     int             `json:"sequence"`
	BeforeAmount decimal.Decimal `json:"before_amount"`
	AfterAmount  decimal.Decimal `json:"after_amount"`
	BeforeStatus string          `json:"before_status"`
	AfterStatus  string          `json:"after_status"`
	DateCleared  bool            `json:"date_cleared"`
}

// fill tops up milestones in order from pool until the pool runs out.
// It returns the milestones it touched and the unallocated rest of the pool.
// Milestones must already be in allocation order.
func fill(milestones []*model.GoalMilestone, pool decimal.Decimal, now time.Time) ([]*model.GoalMilestone, decimal.Decimal) {
	var touched []*model.GoalMilestone
	remaining := pool

	for _, m := range milestones {
		if !remaining.IsPositive() {
			break
		}

		gap := m.Gap()
		if !gap.IsPositive() {
			continue
		}

		add := decimal.Min(remaining, gap)
		m.AchievedAmount = m.AchievedAmount.Add(add)
		remaining = remaining.Sub(add)
		markStatus(m, now)
		m.UpdatedAt = now
		touched = append(touched, m)
	}

	return touched, remaining
}

// markStatus sets achieved once the milestone is full. The first achievement
// date is kept.
func markStatus(m *model.GoalMilestone, now time.Time) {
	if m.AchievedAmount.GreaterThanOrEqual(m.TargetAmount) {
		m.Status = model.MilestoneStatusAchieved
		if m.AchievedDate == nil {
			achieved := now
			m.AchievedDate = &achieved
		}
		return
	}
	m.Status = model.MilestoneStatusPending
}

// AllocateIncremental spreads an accepted contribution over the milestones,
// filling the earliest unfinished one first. Only the touched milestones are
// returned; they need to be persisted.
func AllocateIncremental(milestones []*model.GoalMilestone, accepted decimal.Decimal, now time.Time) []*model.GoalMilestone {
	touched, _ := fill(milestones, accepted, now)
	return touched
}

// ReconcileAllocation re-derives every milestone from scratch with pool as the
// single source of funds. Milestones that are not fully funded afterwards are
// pending with no achievement date, even if they were achieved before.
// Milestones that stay achieved keep their original date.
func ReconcileAllocation(milestones []*model.GoalMilestone, pool decimal.Decimal, now time.Time) []MilestoneChange {
	before := make([]model.GoalMilestone, len(milestones))
	for i, m := range milestones {
		before[i] = *m
		m.AchievedAmount = decimal.Zero
		m.Status = model.MilestoneStatusPending
	}

	if pool.IsNegative() {
		pool = decimal.Zero
	}
	fill(milestones, pool, now)

	var changes []MilestoneChange
	for i, m := range milestones {
		if m.Status != model.MilestoneStatusAchieved {
			m.AchievedDate = nil
		}

		prev := before[i]
		dateCleared := prev.AchievedDate != nil && m.AchievedDate == nil
		if prev.AchievedAmount.Equal(m.AchievedAmount) && prev.Status == m.Status && !dateCleared {
			// Unchanged rows keep their timestamp so a no-op pass writes nothing.
			m.UpdatedAt = prev.UpdatedAt
			continue
		}

		m.UpdatedAt = now
		changes = append(changes, MilestoneChange{
			MilestoneID:  m.ID,
			Sequence:     m.Sequence,
			BeforeAmount: prev.AchievedAmount,
			AfterAmount:  m.AchievedAmount,
			BeforeStatus: prev.Status,
			AfterStatus:  m.Status,
			DateCleared:  dateCleared,
		})
	}

	return changes
}

func cloneMilestones(milestones []*model.GoalMilestone) []*model.GoalMilestone {
	clones := make([]*model.GoalMilestone, len(milestones))
	for i, m := range milestones {
		c := *m
		if m.AchievedDate != nil {
			d := *m.AchievedDate
			c.AchievedDate = &d
		}
		clones[i] = &c
	}
	return clones
}
