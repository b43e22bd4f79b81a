package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/templui/goalflow/internal/model"
)

var (
	ErrGoalNotFound        = errors.New("goal not found")
	ErrGoalVersionConflict = errors.New("goal was modified concurrently")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, tenantID string) ([]*model.Goal, error)
	ActiveByAccount(ctx context.Context, accountID string) ([]*model.Goal, error)
	Active(ctx context.Context) ([]*model.Goal, error)
	UpdateProgress(ctx context.Context, goal *model.Goal) error
}

type goalRepository struct {
	db DBTX
}

func NewGoalRepository(db DBTX) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, tenant_id, account_id, name, goal_type, target_amount, current_amount,
	                             start_date, target_date, status, version, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.TenantID,
		goal.AccountID,
		goal.Name,
		goal.GoalType,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.StartDate,
		goal.TargetDate,
		goal.Status,
		goal.Version,
		goal.CreatedBy,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.GetContext(ctx, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, tenantID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE tenant_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &goals, query, tenantID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) ActiveByAccount(ctx context.Context, accountID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE account_id = $1 AND status = $2 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &goals, query, accountID, model.GoalStatusActive)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Active(ctx context.Context) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE status = $1 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &goals, query, model.GoalStatusActive)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// UpdateProgress writes current_amount, status and updated_at, guarded by the
// version the goal was loaded with. On success goal.Version is advanced. A
// zero UpdatedAt is stamped with the current time.
func (r *goalRepository) UpdateProgress(ctx context.Context, goal *model.Goal) error {
	now := goal.UpdatedAt.UTC()
	if goal.UpdatedAt.IsZero() {
		now = time.Now().UTC()
	}
	query := `UPDATE goals
	          SET current_amount = $1, status = $2, version = version + 1, updated_at = $3
	          WHERE id = $4 AND version = $5`

	result, err := r.db.ExecContext(ctx, query,
		goal.CurrentAmount,
		goal.Status,
		now,
		goal.ID,
		goal.Version,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalVersionConflict
	}

	goal.Version++
	goal.UpdatedAt = now
	return nil
}
