package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/lock"
	"github.com/templui/goalflow/internal/model"
	"github.com/templui/goalflow/internal/repository"
	"github.com/templui/goalflow/internal/validation"
)

var (
	ErrMissingIdentity = errors.New("actor and tenant are required")
)

type CreateGoalInput struct {
	AccountID    string
	Name         string
	GoalType     string
	TargetAmount decimal.Decimal
	StartDate    time.Time
	TargetDate   time.Time
}

// ContributionInput is one request to add funds to a goal.
type ContributionInput struct {
	GoalID        string
	Amount        decimal.Decimal
	Date          time.Time
	Type          string
	ReferenceType string
	ReferenceID   string
	Note          string
	ActorID       string
	TenantID      string
}

// ContributionResult describes what AddContribution did. A result with no
// Contribution is a no-op: the goal was already complete, the amount was
// zero, or the reference had been recorded before.
type ContributionResult struct {
	GoalID       string                  `json:"goal_id"`
	Contribution *model.GoalContribution `json:"contribution,omitempty"`
	Requested    decimal.Decimal         `json:"requested"`
	Accepted     decimal.Decimal         `json:"accepted"`
	Discarded    decimal.Decimal         `json:"discarded"`
	Duplicate    bool                    `json:"duplicate"`
	Goal         *model.Goal             `json:"goal"`
	Tracking     *model.GoalTracking     `json:"tracking,omitempty"`
	Milestones   []*model.GoalMilestone  `json:"milestones,omitempty"`
}

func (r *ContributionResult) NoOp() bool {
	return r.Contribution == nil
}

// ReconcileReport lists the milestones a full recompute changed. Any change
// means the incremental allocation had drifted from the goal's total.
type ReconcileReport struct {
	GoalID     string                 `json:"goal_id"`
	Pool       decimal.Decimal        `json:"pool"`
	Changes    []MilestoneChange      `json:"changes"`
	Milestones []*model.GoalMilestone `json:"milestones"`
}

func (r *ReconcileReport) Diverged() bool {
	return len(r.Changes) > 0
}

type Option func(*GoalService)

// WithClock replaces time.Now for dates the engine stamps.
func WithClock(now func() time.Time) Option {
	return func(s *GoalService) {
		s.now = now
	}
}

type GoalService struct {
	store      repository.Store
	locker     lock.Locker
	calculator *ContributionCalculator
	now        func() time.Time
}

func NewGoalService(store repository.Store, locker lock.Locker, calculator *ContributionCalculator, opts ...Option) *GoalService {
	s := &GoalService{
		store:      store,
		locker:     locker,
		calculator: calculator,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoalService) clock() time.Time {
	return s.now().UTC()
}

// owned reports whether tenantID may see the goal. An empty tenant is the
// system scope used by maintenance jobs.
func owned(goal *model.Goal, tenantID string) bool {
	return tenantID == "" || goal.TenantID == tenantID
}

func (s *GoalService) Create(ctx context.Context, tenantID, actorID string, in CreateGoalInput) (*model.Goal, error) {
	if tenantID == "" || actorID == "" {
		return nil, ErrMissingIdentity
	}

	now := s.clock()
	start := in.StartDate
	if start.IsZero() {
		start = startOfDay(now)
	}

	err := errors.Join(
		validation.ValidateName(in.Name),
		validation.ValidateAccountID(in.AccountID),
		validation.ValidateGoalType(in.GoalType),
		validation.ValidateTargetAmount(in.TargetAmount),
		validation.ValidateGoalDates(start, in.TargetDate),
	)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	account, err := repos.Ledger.Account(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if account.TenantID != tenantID {
		return nil, repository.ErrAccountNotFound
	}

	goal := &model.Goal{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		AccountID:     in.AccountID,
		Name:          in.Name,
		GoalType:      in.GoalType,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     start.UTC(),
		TargetDate:    in.TargetDate.UTC(),
		Status:        model.GoalStatusActive,
		Version:       1,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = repos.Goals.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	slog.Info("goal created", "goal_id", goal.ID, "tenant_id", tenantID, "goal_type", goal.GoalType)
	return goal, nil
}

// AddMilestone appends a pending milestone after the goal's existing ones.
// It holds no funds until the next contribution or reconciliation.
func (s *GoalService) AddMilestone(ctx context.Context, tenantID, goalID, title string, target decimal.Decimal) (*model.GoalMilestone, error) {
	err := errors.Join(
		validation.ValidateName(title),
		validation.ValidateTargetAmount(target),
	)
	if err != nil {
		return nil, err
	}

	var milestone *model.GoalMilestone
	err = s.locker.WithLock(ctx, lock.GoalKey(goalID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(repos *repository.Repositories) error {
			goal, err := repos.Goals.ByID(ctx, goalID)
			if err != nil {
				return err
			}
			if !owned(goal, tenantID) {
				return repository.ErrGoalNotFound
			}

			sequence, err := repos.Milestones.NextSequence(ctx, goalID)
			if err != nil {
				return fmt.Errorf("failed to read milestone sequence: %w", err)
			}

			now := s.clock()
			milestone = &model.GoalMilestone{
				ID:             uuid.New().String(),
				GoalID:         goalID,
				Sequence:       sequence,
				Title:          title,
				TargetAmount:   target,
				AchievedAmount: decimal.Zero,
				Status:         model.MilestoneStatusPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}

			err = repos.Milestones.Create(ctx, milestone)
			if err != nil {
				return fmt.Errorf("failed to create milestone: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return milestone, nil
}

func (s *GoalService) Goals(ctx context.Context, tenantID string) ([]*model.Goal, error) {
	return s.store.Repos().Goals.Goals(ctx, tenantID)
}

func (s *GoalService) ByID(ctx context.Context, tenantID, goalID string) (*model.Goal, error) {
	goal, err := s.store.Repos().Goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !owned(goal, tenantID) {
		return nil, repository.ErrGoalNotFound
	}
	return goal, nil
}

func (s *GoalService) GoalWithMilestones(ctx context.Context, tenantID, goalID string) (*model.Goal, []*model.GoalMilestone, error) {
	goal, err := s.ByID(ctx, tenantID, goalID)
	if err != nil {
		return nil, nil, err
	}

	milestones, err := s.store.Repos().Milestones.Milestones(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}

	return goal, milestones, nil
}

func (s *GoalService) Contributions(ctx context.Context, tenantID, goalID string) ([]*model.GoalContribution, error) {
	_, err := s.ByID(ctx, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	return s.store.Repos().Contributions.Contributions(ctx, goalID)
}

func (s *GoalService) Trackings(ctx context.Context, tenantID, goalID string) ([]*model.GoalTracking, error) {
	_, err := s.ByID(ctx, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	return s.store.Repos().Trackings.Trackings(ctx, goalID)
}

// Projection returns the projected completion date as of now, nil when the
// goal has no forward velocity.
func (s *GoalService) Projection(ctx context.Context, tenantID, goalID string) (*time.Time, error) {
	goal, err := s.ByID(ctx, tenantID, goalID)
	if err != nil {
		return nil, err
	}

	contributions, err := s.store.Repos().Contributions.Since(ctx, goalID, goal.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}

	return ProjectCompletion(goal, contributions, s.clock()), nil
}

// AddContribution records funds against a goal. The amount is capped at
// what the goal still needs; anything above is dropped. The contribution,
// goal update, snapshot and milestone allocation commit together or not at
// all, and run under the goal's lock.
func (s *GoalService) AddContribution(ctx context.Context, in ContributionInput) (*ContributionResult, error) {
	if in.ActorID == "" || in.TenantID == "" {
		return nil, ErrMissingIdentity
	}
	if in.Type == "" {
		in.Type = model.ContributionTypeManual
	}

	err := errors.Join(
		validation.ValidateContributionAmount(in.Amount),
		validation.ValidateContributionType(in.Type),
	)
	if err != nil {
		return nil, err
	}

	var result *ContributionResult
	err = s.locker.WithLock(ctx, lock.GoalKey(in.GoalID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(repos *repository.Repositories) error {
			var err error
			result, err = s.record(ctx, repos, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Duplicate:
		slog.Info("contribution skipped, reference already recorded",
			"goal_id", in.GoalID, "reference_type", in.ReferenceType, "reference_id", in.ReferenceID)
	case result.NoOp():
		slog.Info("contribution skipped, nothing accepted", "goal_id", in.GoalID, "requested", in.Amount.String())
	default:
		slog.Info("contribution recorded",
			"goal_id", in.GoalID,
			"contribution_id", result.Contribution.ID,
			"accepted", result.Accepted.String(),
			"current_amount", result.Goal.CurrentAmount.String(),
			"status", result.Goal.Status,
		)
		if result.Discarded.IsPositive() {
			slog.Debug("contribution capped at goal target", "goal_id", in.GoalID, "discarded", result.Discarded.String())
		}
	}

	return result, nil
}

func (s *GoalService) record(ctx context.Context, repos *repository.Repositories, in ContributionInput) (*ContributionResult, error) {
	goal, err := repos.Goals.ByID(ctx, in.GoalID)
	if err != nil {
		return nil, err
	}
	if !owned(goal, in.TenantID) {
		return nil, repository.ErrGoalNotFound
	}

	result := &ContributionResult{
		GoalID:    goal.ID,
		Requested: in.Amount,
		Accepted:  decimal.Zero,
		Discarded: decimal.Zero,
		Goal:      goal,
	}

	if in.ReferenceType != "" && in.ReferenceID != "" {
		exists, err := repos.Contributions.ExistsByReference(ctx, goal.ID, in.ReferenceType, in.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("failed to check contribution reference: %w", err)
		}
		if exists {
			result.Duplicate = true
			return result, nil
		}
	}

	accepted := decimal.Min(in.Amount, goal.Remaining())
	if !accepted.IsPositive() {
		return result, nil
	}

	now := s.clock()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	contribution := &model.GoalContribution{
		ID:                 uuid.New().String(),
		GoalID:             goal.ID,
		TenantID:           goal.TenantID,
		ContributionDate:   date.UTC(),
		ContributionAmount: accepted,
		ContributionType:   in.Type,
		Note:               in.Note,
		CreatedBy:          in.ActorID,
		CreatedAt:          now,
	}
	if in.ReferenceType != "" {
		contribution.ReferenceType = &in.ReferenceType
	}
	if in.ReferenceID != "" {
		contribution.ReferenceID = &in.ReferenceID
	}

	err = repos.Contributions.Create(ctx, contribution)
	if err != nil {
		return nil, fmt.Errorf("failed to create contribution: %w", err)
	}

	goal.CurrentAmount = decimal.Min(goal.TargetAmount, goal.CurrentAmount.Add(accepted))
	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = model.GoalStatusCompleted
	}

	goal.UpdatedAt = now
	err = repos.Goals.UpdateProgress(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal progress: %w", err)
	}

	tracking, err := s.snapshot(ctx, repos, goal, in.ActorID, now)
	if err != nil {
		return nil, err
	}

	milestones, err := s.allocate(ctx, repos, goal.ID, accepted, now)
	if err != nil {
		return nil, err
	}

	result.Contribution = contribution
	result.Accepted = accepted
	result.Discarded = in.Amount.Sub(accepted)
	result.Tracking = tracking
	result.Milestones = milestones
	return result, nil
}

func (s *GoalService) snapshot(ctx context.Context, repos *repository.Repositories, goal *model.Goal, actorID string, now time.Time) (*model.GoalTracking, error) {
	previous, err := repos.Trackings.Latest(ctx, goal.ID)
	if err != nil && !errors.Is(err, repository.ErrTrackingNotFound) {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}

	contributions, err := repos.Contributions.Since(ctx, goal.ID, goal.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}

	tracking := buildSnapshot(goal, previous, ProjectCompletion(goal, contributions, now), actorID, now)

	err = repos.Trackings.Create(ctx, tracking)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	return tracking, nil
}

func (s *GoalService) allocate(ctx context.Context, repos *repository.Repositories, goalID string, accepted decimal.Decimal, now time.Time) ([]*model.GoalMilestone, error) {
	milestones, err := repos.Milestones.Milestones(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}

	touched := AllocateIncremental(milestones, accepted, now)
	for _, m := range touched {
		err = repos.Milestones.Update(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("failed to update milestone %s: %w", m.ID, err)
		}
	}
	return touched, nil
}

// ProcessLedgerEntry feeds one posted journal entry to every active goal
// linked to an account it touches. Goals are independent: a failure on one
// does not stop the others, and all failures are returned joined.
func (s *GoalService) ProcessLedgerEntry(ctx context.Context, actorID string, entry *model.JournalEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: journal entry id is required", validation.ErrInvalidInput)
	}
	if entry.Status != "" && entry.Status != model.JournalEntryStatusPosted {
		slog.Debug("ledger entry ignored, not posted", "entry_id", entry.ID, "status", entry.Status)
		return nil
	}

	repos := s.store.Repos()
	var errs []error

	for _, accountID := range entry.AccountIDs() {
		goals, err := repos.Goals.ActiveByAccount(ctx, accountID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load goals for account %s: %w", accountID, err))
			continue
		}
		if len(goals) == 0 {
			continue
		}

		account, err := repos.Ledger.Account(ctx, accountID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load account %s: %w", accountID, err))
			continue
		}

		for _, goal := range goals {
			if entry.TenantID != "" && goal.TenantID != entry.TenantID {
				continue
			}

			err := s.contributeFromEntry(ctx, actorID, goal, account, entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("goal %s: %w", goal.ID, err))
			}
		}
	}

	return errors.Join(errs...)
}

func (s *GoalService) contributeFromEntry(ctx context.Context, actorID string, goal *model.Goal, account *model.Account, entry *model.JournalEntry) error {
	amount, err := s.calculator.Calculate(ctx, goal, account, entry)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return nil
	}

	_, err = s.AddContribution(ctx, ContributionInput{
		GoalID:        goal.ID,
		Amount:        amount,
		Date:          entry.EntryDate,
		Type:          model.ContributionTypeAutomatic,
		ReferenceType: model.ReferenceTypeJournalEntry,
		ReferenceID:   entry.ID,
		ActorID:       actorID,
		TenantID:      goal.TenantID,
	})
	return err
}

// SyncLedger replays every entry posted since the given time. Entries already
// recorded are skipped by their reference, so overlapping windows are safe.
func (s *GoalService) SyncLedger(ctx context.Context, actorID string, since time.Time) (int, error) {
	entries, err := s.store.Repos().Ledger.PostedEntriesSince(ctx, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to load posted entries: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		err := s.ProcessLedgerEntry(ctx, actorID, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", entry.ID, err))
		}
	}

	slog.Info("ledger sync finished", "since", since, "entries", len(entries), "failed", len(errs))
	return len(entries), errors.Join(errs...)
}

// ReconcileMilestones recomputes every milestone of the goal from its
// current_amount and persists the result.
func (s *GoalService) ReconcileMilestones(ctx context.Context, tenantID, goalID string) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := s.locker.WithLock(ctx, lock.GoalKey(goalID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(repos *repository.Repositories) error {
			goal, err := repos.Goals.ByID(ctx, goalID)
			if err != nil {
				return err
			}
			if !owned(goal, tenantID) {
				return repository.ErrGoalNotFound
			}

			milestones, err := repos.Milestones.Milestones(ctx, goalID)
			if err != nil {
				return fmt.Errorf("failed to load milestones: %w", err)
			}

			changes := ReconcileAllocation(milestones, goal.CurrentAmount, s.clock())
			changed := make(map[string]bool, len(changes))
			for _, c := range changes {
				changed[c.MilestoneID] = true
			}

			for _, m := range milestones {
				if !changed[m.ID] {
					continue
				}
				err = repos.Milestones.Update(ctx, m)
				if err != nil {
					return fmt.Errorf("failed to update milestone %s: %w", m.ID, err)
				}
			}

			report = &ReconcileReport{
				GoalID:     goalID,
				Pool:       goal.CurrentAmount,
				Changes:    changes,
				Milestones: milestones,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if report.Diverged() {
		slog.Warn("milestone allocation diverged from goal total", "goal_id", goalID, "changes", len(report.Changes))
	}
	return report, nil
}

// PreviewReconcile computes what ReconcileMilestones would change without
// writing anything.
func (s *GoalService) PreviewReconcile(ctx context.Context, goalID string) (*ReconcileReport, error) {
	goal, milestones, err := s.GoalWithMilestones(ctx, "", goalID)
	if err != nil {
		return nil, err
	}

	preview := cloneMilestones(milestones)
	changes := ReconcileAllocation(preview, goal.CurrentAmount, s.clock())

	return &ReconcileReport{
		GoalID:     goalID,
		Pool:       goal.CurrentAmount,
		Changes:    changes,
		Milestones: preview,
	}, nil
}
