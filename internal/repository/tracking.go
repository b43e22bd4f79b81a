package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/templui/goalflow/internal/model"
)

var (
	ErrTrackingNotFound = errors.New("goal tracking not found")
)

type TrackingRepository interface {
	Create(ctx context.Context, tracking *model.GoalTracking) error
	Latest(ctx context.Context, goalID string) (*model.GoalTracking, error)
	Trackings(ctx context.Context, goalID string) ([]*model.GoalTracking, error)
}

type trackingRepository struct {
	db DBTX
}

func NewTrackingRepository(db DBTX) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) Create(ctx context.Context, t *model.GoalTracking) error {
	query := `INSERT INTO goal_trackings (id, goal_id, tenant_id, tracking_date, previous_amount, contribution_amount,
	                                      current_amount, progress_percentage, days_remaining, projected_completion_date,
	                                      on_track_status, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.GoalID,
		t.TenantID,
		t.TrackingDate,
		t.PreviousAmount,
		t.ContributionAmount,
		t.CurrentAmount,
		t.ProgressPercentage,
		t.DaysRemaining,
		t.ProjectedCompletionDate,
		t.OnTrackStatus,
		t.CreatedBy,
		t.CreatedAt,
	)

	return err
}

// Latest returns the most recent snapshot, or ErrTrackingNotFound when the
// goal has none yet.
func (r *trackingRepository) Latest(ctx context.Context, goalID string) (*model.GoalTracking, error) {
	tracking := &model.GoalTracking{}
	query := `SELECT * FROM goal_trackings WHERE goal_id = $1 ORDER BY tracking_date DESC, created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, tracking, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackingNotFound
	}
	if err != nil {
		return nil, err
	}

	return tracking, nil
}

func (r *trackingRepository) Trackings(ctx context.Context, goalID string) ([]*model.GoalTracking, error) {
	var trackings []*model.GoalTracking
	query := `SELECT * FROM goal_trackings WHERE goal_id = $1 ORDER BY tracking_date ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &trackings, query, goalID)
	if err != nil {
		return nil, err
	}

	return trackings, nil
}
