package repository

import (
	"context"
	"errors"

	"github.com/templui/goalflow/internal/model"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")
)

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *model.GoalMilestone) error
	Milestones(ctx context.Context, goalID string) ([]*model.GoalMilestone, error)
	NextSequence(ctx context.Context, goalID string) (int, error)
	Update(ctx context.Context, milestone *model.GoalMilestone) error
}

type milestoneRepository struct {
	db DBTX
}

func NewMilestoneRepository(db DBTX) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(ctx context.Context, m *model.GoalMilestone) error {
	query := `INSERT INTO goal_milestones (id, goal_id, sequence, title, target_amount, achieved_amount,
	                                       status, achieved_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.GoalID,
		m.Sequence,
		m.Title,
		m.TargetAmount,
		m.AchievedAmount,
		m.Status,
		m.AchievedDate,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return err
}

// Milestones returns the goal's milestones in allocation order.
func (r *milestoneRepository) Milestones(ctx context.Context, goalID string) ([]*model.GoalMilestone, error) {
	var milestones []*model.GoalMilestone
	query := `SELECT * FROM goal_milestones WHERE goal_id = $1 ORDER BY sequence ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &milestones, query, goalID)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

func (r *milestoneRepository) NextSequence(ctx context.Context, goalID string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sequence), 0) + 1 FROM goal_milestones WHERE goal_id = $1`

	err := r.db.QueryRowxContext(ctx, query, goalID).Scan(&next)
	if err != nil {
		return 0, err
	}

	return next, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *model.GoalMilestone) error {
	query := `UPDATE goal_milestones
	          SET achieved_amount = $1, status = $2, achieved_date = $3, updated_at = $4
	          WHERE id = $5 AND goal_id = $6`

	result, err := r.db.ExecContext(ctx, query,
		m.AchievedAmount,
		m.Status,
		m.AchievedDate,
		m.UpdatedAt,
		m.ID,
		m.GoalID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrMilestoneNotFound
	}

	return nil
}
