package repository

import (
	"context"
	"time"

	"github.com/templui/goalflow/internal/model"
)

type ContributionRepository interface {
	Create(ctx context.Context, contribution *model.GoalContribution) error
	Contributions(ctx context.Context, goalID string) ([]*model.GoalContribution, error)
	Since(ctx context.Context, goalID string, from time.Time) ([]*model.GoalContribution, error)
	ExistsByReference(ctx context.Context, goalID, referenceType, referenceID string) (bool, error)
}

type contributionRepository struct {
	db DBTX
}

func NewContributionRepository(db DBTX) ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) Create(ctx context.Context, c *model.GoalContribution) error {
	query := `INSERT INTO goal_contributions (id, goal_id, tenant_id, contribution_date, contribution_amount,
	                                          contribution_type, reference_type, reference_id, note, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.GoalID,
		c.TenantID,
		c.ContributionDate,
		c.ContributionAmount,
		c.ContributionType,
		c.ReferenceType,
		c.ReferenceID,
		c.Note,
		c.CreatedBy,
		c.CreatedAt,
	)

	return err
}

func (r *contributionRepository) Contributions(ctx context.Context, goalID string) ([]*model.GoalContribution, error) {
	var contributions []*model.GoalContribution
	query := `SELECT * FROM goal_contributions WHERE goal_id = $1 ORDER BY contribution_date ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &contributions, query, goalID)
	if err != nil {
		return nil, err
	}

	return contributions, nil
}

// Since lists contributions dated on or after from, oldest first.
func (r *contributionRepository) Since(ctx context.Context, goalID string, from time.Time) ([]*model.GoalContribution, error) {
	var contributions []*model.GoalContribution
	query := `SELECT * FROM goal_contributions
	          WHERE goal_id = $1 AND contribution_date >= $2
	          ORDER BY contribution_date ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &contributions, query, goalID, from)
	if err != nil {
		return nil, err
	}

	return contributions, nil
}

func (r *contributionRepository) ExistsByReference(ctx context.Context, goalID, referenceType, referenceID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_contributions
	          WHERE goal_id = $1 AND reference_type = $2 AND reference_id = $3`

	err := r.db.QueryRowxContext(ctx, query, goalID, referenceType, referenceID).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
