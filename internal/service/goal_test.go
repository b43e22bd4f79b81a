package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalflow/internal/ctxkeys"
	"github.com/templui/goalflow/internal/db/dbtest"
	"github.com/templui/goalflow/internal/lock"
	"github.com/templui/goalflow/internal/model"
	"github.com/templui/goalflow/internal/repository"
	"github.com/templui/goalflow/internal/validation"
)

const (
	testTenant = "tenant-1"
	testActor  = "user-1"
)

// testClock advances a minute on every read so snapshots order strictly.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type testEnv struct {
	db    *sqlx.DB
	store repository.Store
	svc   *GoalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	store := repository.NewStore(database)
	calculator := NewContributionCalculator(NewBaselineEstimator(store.Repos().Ledger, decimal.NewFromInt(100), 3))
	clock := &testClock{now: testNow}

	return &testEnv{
		db:    database,
		store: store,
		svc:   NewGoalService(store, lock.NewLocal(), calculator, WithClock(clock.Now)),
	}
}

func (e *testEnv) createGoal(t *testing.T, goalType, normalBalance, target string, milestoneTargets ...string) *model.Goal {
	t.Helper()
	ctx := context.Background()

	accountID := uuid.New().String()
	dbtest.SeedAccount(t, e.db, accountID, testTenant, normalBalance)

	goal, err := e.svc.Create(ctx, testTenant, testActor, CreateGoalInput{
		AccountID:    accountID,
		Name:         "Emergency fund",
		GoalType:     goalType,
		TargetAmount: dec(target),
		StartDate:    date(2024, 1, 1),
		TargetDate:   date(2024, 12, 31),
	})
	require.NoError(t, err)

	for i, m := range milestoneTargets {
		_, err := e.svc.AddMilestone(ctx, testTenant, goal.ID, fmt.Sprintf("Milestone %d", i+1), dec(m))
		require.NoError(t, err)
	}
	return goal
}

func (e *testEnv) contribute(t *testing.T, goalID, amount string) *ContributionResult {
	t.Helper()

	result, err := e.svc.AddContribution(context.Background(), ContributionInput{
		GoalID:   goalID,
		Amount:   dec(amount),
		Date:     testNow,
		Type:     model.ContributionTypeManual,
		ActorID:  testActor,
		TenantID: testTenant,
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) state(t *testing.T, goalID string) (*model.Goal, []*model.GoalMilestone) {
	t.Helper()

	goal, milestones, err := e.svc.GoalWithMilestones(context.Background(), testTenant, goalID)
	require.NoError(t, err)
	return goal, milestones
}

func (e *testEnv) contributions(t *testing.T, goalID string) []*model.GoalContribution {
	t.Helper()

	contributions, err := e.svc.Contributions(context.Background(), testTenant, goalID)
	require.NoError(t, err)
	return contributions
}

func (e *testEnv) trackings(t *testing.T, goalID string) []*model.GoalTracking {
	t.Helper()

	trackings, err := e.svc.Trackings(context.Background(), testTenant, goalID)
	require.NoError(t, err)
	return trackings
}

func TestCreateGoal(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")

	stored, err := env.svc.ByID(context.Background(), testTenant, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, stored.Status)
	assert.True(t, stored.CurrentAmount.IsZero())
	assert.Equal(t, "1000", stored.TargetAmount.String())
	assert.Equal(t, int64(1), stored.Version)

	_, err = env.svc.ByID(context.Background(), "other-tenant", goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestCreateGoal_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dbtest.SeedAccount(t, env.db, "acct", testTenant, model.NormalBalanceCredit)

	valid := CreateGoalInput{
		AccountID:    "acct",
		Name:         "Holiday",
		GoalType:     model.GoalTypeSavings,
		TargetAmount: dec("500"),
		StartDate:    date(2024, 1, 1),
		TargetDate:   date(2024, 6, 1),
	}

	_, err := env.svc.Create(ctx, "", testActor, valid)
	assert.ErrorIs(t, err, ErrMissingIdentity)

	bad := valid
	bad.TargetAmount = decimal.Zero
	_, err = env.svc.Create(ctx, testTenant, testActor, bad)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)

	bad = valid
	bad.GoalType = "retirement"
	_, err = env.svc.Create(ctx, testTenant, testActor, bad)
	assert.ErrorIs(t, err, validation.ErrUnknownGoalType)

	bad = valid
	bad.TargetDate = date(2023, 1, 1)
	_, err = env.svc.Create(ctx, testTenant, testActor, bad)
	assert.ErrorIs(t, err, validation.ErrTargetDateBeforeStart)

	bad = valid
	bad.AccountID = "missing"
	_, err = env.svc.Create(ctx, testTenant, testActor, bad)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	_, err = env.svc.Create(ctx, "other-tenant", testActor, valid)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestAddMilestone_AssignsSequence(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "100", "200", "300")

	_, milestones := env.state(t, goal.ID)

	require.Len(t, milestones, 3)
	for i, m := range milestones {
		assert.Equal(t, i+1, m.Sequence)
		assert.Equal(t, model.MilestoneStatusPending, m.Status)
	}
	assert.Equal(t, "Milestone 3", milestones[2].Title)
}

func TestAddContribution_StampsRowsWithServiceClock(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")

	result := env.contribute(t, goal.ID, "100")
	stamped := result.Contribution.CreatedAt

	assert.True(t, result.Goal.UpdatedAt.Equal(stamped))
	assert.True(t, result.Tracking.CreatedAt.Equal(stamped))
	assert.True(t, result.Tracking.TrackingDate.Equal(stamped))

	stored, _ := env.state(t, goal.ID)
	assert.True(t, stored.UpdatedAt.Equal(stamped), "stored %s, want %s", stored.UpdatedAt, stamped)

	trackings := env.trackings(t, goal.ID)
	require.Len(t, trackings, 1)
	assert.True(t, trackings[0].CreatedAt.Equal(stamped))
}

func TestAddContribution_SplitsAcrossMilestones(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300", "700")

	result := env.contribute(t, goal.ID, "500")

	assert.False(t, result.NoOp())
	assert.Equal(t, "500", result.Accepted.String())
	assert.True(t, result.Discarded.IsZero())

	stored, milestones := env.state(t, goal.ID)
	assert.Equal(t, "500", stored.CurrentAmount.String())
	assert.Equal(t, model.GoalStatusActive, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	require.Len(t, milestones, 2)
	assert.Equal(t, "300", milestones[0].AchievedAmount.String())
	assert.Equal(t, model.MilestoneStatusAchieved, milestones[0].Status)
	assert.NotNil(t, milestones[0].AchievedDate)
	assert.Equal(t, "200", milestones[1].AchievedAmount.String())
	assert.Equal(t, model.MilestoneStatusPending, milestones[1].Status)
	assert.Nil(t, milestones[1].AchievedDate)

	contributions := env.contributions(t, goal.ID)
	require.Len(t, contributions, 1)
	assert.Equal(t, "500", contributions[0].ContributionAmount.String())
	assert.Equal(t, model.ContributionTypeManual, contributions[0].ContributionType)
	assert.Equal(t, testActor, contributions[0].CreatedBy)

	trackings := env.trackings(t, goal.ID)
	require.Len(t, trackings, 1)
	assert.True(t, trackings[0].PreviousAmount.IsZero())
	assert.Equal(t, "500", trackings[0].ContributionAmount.String())
	assert.Equal(t, "50", trackings[0].ProgressPercentage.String())
}

func TestAddContribution_CapsAndCompletes(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300", "700")
	env.contribute(t, goal.ID, "500")

	result := env.contribute(t, goal.ID, "600")

	assert.Equal(t, "600", result.Requested.String())
	assert.Equal(t, "500", result.Accepted.String())
	assert.Equal(t, "100", result.Discarded.String())
	assert.Equal(t, "500", result.Contribution.ContributionAmount.String())

	stored, milestones := env.state(t, goal.ID)
	assert.Equal(t, "1000", stored.CurrentAmount.String())
	assert.Equal(t, model.GoalStatusCompleted, stored.Status)
	assert.Equal(t, "700", milestones[1].AchievedAmount.String())
	assert.Equal(t, model.MilestoneStatusAchieved, milestones[1].Status)

	trackings := env.trackings(t, goal.ID)
	require.Len(t, trackings, 2)
	assert.Equal(t, "500", trackings[1].PreviousAmount.String())
	assert.Equal(t, "500", trackings[1].ContributionAmount.String())
	assert.Equal(t, "100", trackings[1].ProgressPercentage.String())
}

func TestAddContribution_CompletedGoalIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300", "700")
	env.contribute(t, goal.ID, "1000")
	_, before := env.state(t, goal.ID)

	result := env.contribute(t, goal.ID, "100")

	assert.True(t, result.NoOp())
	assert.True(t, result.Accepted.IsZero())
	assert.Len(t, env.contributions(t, goal.ID), 1)
	assert.Len(t, env.trackings(t, goal.ID), 1)

	stored, after := env.state(t, goal.ID)
	assert.Equal(t, model.GoalStatusCompleted, stored.Status)
	for i := range before {
		assert.True(t, before[i].AchievedAmount.Equal(after[i].AchievedAmount))
		assert.Equal(t, before[i].UpdatedAt, after[i].UpdatedAt)
	}
}

func TestAddContribution_ZeroAmountIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")

	result := env.contribute(t, goal.ID, "0")

	assert.True(t, result.NoOp())
	assert.Empty(t, env.contributions(t, goal.ID))
}

func TestAddContribution_Rejections(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")
	ctx := context.Background()

	_, err := env.svc.AddContribution(ctx, ContributionInput{GoalID: goal.ID, Amount: dec("-1"), ActorID: testActor, TenantID: testTenant})
	assert.ErrorIs(t, err, validation.ErrNegativeAmount)

	_, err = env.svc.AddContribution(ctx, ContributionInput{GoalID: goal.ID, Amount: dec("1.00001"), ActorID: testActor, TenantID: testTenant})
	assert.ErrorIs(t, err, validation.ErrAmountPrecision)

	_, err = env.svc.AddContribution(ctx, ContributionInput{GoalID: goal.ID, Amount: dec("10"), Type: "gift", ActorID: testActor, TenantID: testTenant})
	assert.ErrorIs(t, err, validation.ErrUnknownContributionType)

	_, err = env.svc.AddContribution(ctx, ContributionInput{GoalID: goal.ID, Amount: dec("10")})
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = env.svc.AddContribution(ctx, ContributionInput{GoalID: goal.ID, Amount: dec("10"), ActorID: testActor, TenantID: "other-tenant"})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	_, err = env.svc.AddContribution(ctx, ContributionInput{GoalID: "missing", Amount: dec("10"), ActorID: testActor, TenantID: testTenant})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	assert.Empty(t, env.contributions(t, goal.ID))
}

func TestAddContribution_DuplicateReferenceSkipped(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")
	in := ContributionInput{
		GoalID:        goal.ID,
		Amount:        dec("100"),
		Type:          model.ContributionTypeAutomatic,
		ReferenceType: model.ReferenceTypeJournalEntry,
		ReferenceID:   "je-42",
		ActorID:       testActor,
		TenantID:      testTenant,
	}

	first, err := env.svc.AddContribution(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.NoOp())
	require.NotNil(t, first.Contribution.ReferenceID)
	assert.Equal(t, "je-42", *first.Contribution.ReferenceID)

	second, err := env.svc.AddContribution(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.True(t, second.NoOp())

	stored, _ := env.state(t, goal.ID)
	assert.Equal(t, "100", stored.CurrentAmount.String())
	assert.Len(t, env.contributions(t, goal.ID), 1)
}

func TestAddContribution_ProjectionFromVelocity(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "500")
	ctx := context.Background()

	first, err := env.svc.AddContribution(ctx, ContributionInput{
		GoalID: goal.ID, Amount: dec("100"), Date: date(2024, 3, 10), ActorID: testActor, TenantID: testTenant,
	})
	require.NoError(t, err)
	require.NotNil(t, first.Tracking.ProjectedCompletionDate)
	assert.True(t, first.Tracking.ProjectedCompletionDate.Equal(goal.TargetDate))

	second, err := env.svc.AddContribution(ctx, ContributionInput{
		GoalID: goal.ID, Amount: dec("100"), Date: date(2024, 4, 10), ActorID: testActor, TenantID: testTenant,
	})
	require.NoError(t, err)

	require.NotNil(t, second.Tracking.ProjectedCompletionDate)
	expected := second.Tracking.TrackingDate.AddDate(0, 3, 0)
	assert.True(t, second.Tracking.ProjectedCompletionDate.Equal(expected))

	projected, err := env.svc.Projection(ctx, testTenant, goal.ID)
	require.NoError(t, err)
	require.NotNil(t, projected)
}

func TestAddContribution_ContributionsBeforeStartIgnoredForProjection(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "500")
	ctx := context.Background()

	_, err := env.svc.AddContribution(ctx, ContributionInput{
		GoalID: goal.ID, Amount: dec("100"), Date: date(2023, 12, 1), ActorID: testActor, TenantID: testTenant,
	})
	require.NoError(t, err)

	second, err := env.svc.AddContribution(ctx, ContributionInput{
		GoalID: goal.ID, Amount: dec("100"), Date: date(2024, 2, 1), ActorID: testActor, TenantID: testTenant,
	})
	require.NoError(t, err)

	require.NotNil(t, second.Tracking.ProjectedCompletionDate)
	assert.True(t, second.Tracking.ProjectedCompletionDate.Equal(goal.TargetDate))
}

func TestAddContribution_ConcurrentNeverExceedsTarget(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "250", "250", "500")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddContribution(context.Background(), ContributionInput{
				GoalID:   goal.ID,
				Amount:   dec("75"),
				ActorID:  testActor,
				TenantID: testTenant,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, milestones := env.state(t, goal.ID)
	assert.Equal(t, "1000", stored.CurrentAmount.String())
	assert.Equal(t, model.GoalStatusCompleted, stored.Status)

	sum := decimal.Zero
	for _, c := range env.contributions(t, goal.ID) {
		sum = sum.Add(c.ContributionAmount)
	}
	assert.Equal(t, "1000", sum.String())

	allocated := decimal.Zero
	for _, m := range milestones {
		allocated = allocated.Add(m.AchievedAmount)
		assert.Equal(t, model.MilestoneStatusAchieved, m.Status)
	}
	assert.Equal(t, "1000", allocated.String())

	trackings := env.trackings(t, goal.ID)
	assert.Equal(t, "1000", trackings[len(trackings)-1].CurrentAmount.String())
}

func TestProcessLedgerEntry_Savings(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")
	ctx := context.Background()

	entry := dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 5, 1),
		Items: []*model.JournalItem{
			{AccountID: goal.AccountID, Debit: decimal.Zero, Credit: dec("250")},
		},
	})

	require.NoError(t, env.svc.ProcessLedgerEntry(ctx, ctxkeys.SystemActor, entry))
	require.NoError(t, env.svc.ProcessLedgerEntry(ctx, ctxkeys.SystemActor, entry))

	contributions := env.contributions(t, goal.ID)
	require.Len(t, contributions, 1)
	c := contributions[0]
	assert.Equal(t, "250", c.ContributionAmount.String())
	assert.Equal(t, model.ContributionTypeAutomatic, c.ContributionType)
	require.NotNil(t, c.ReferenceType)
	assert.Equal(t, model.ReferenceTypeJournalEntry, *c.ReferenceType)
	assert.Equal(t, entry.ID, *c.ReferenceID)
	assert.Equal(t, ctxkeys.SystemActor, c.CreatedBy)
	assert.True(t, c.ContributionDate.Equal(date(2024, 5, 1)))
}

func TestProcessLedgerEntry_SkipsUnrelatedEntries(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")
	ctx := context.Background()

	otherTenant := &model.JournalEntry{
		ID:        "je-other",
		TenantID:  "other-tenant",
		EntryDate: testNow,
		Status:    model.JournalEntryStatusPosted,
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Credit: dec("100")}},
	}
	draft := &model.JournalEntry{
		ID:        "je-draft",
		TenantID:  testTenant,
		EntryDate: testNow,
		Status:    model.JournalEntryStatusDraft,
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Credit: dec("100")}},
	}
	withdrawal := &model.JournalEntry{
		ID:        "je-withdrawal",
		TenantID:  testTenant,
		EntryDate: testNow,
		Status:    model.JournalEntryStatusPosted,
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("100")}},
	}
	noGoals := &model.JournalEntry{
		ID:        "je-unlinked",
		TenantID:  testTenant,
		EntryDate: testNow,
		Status:    model.JournalEntryStatusPosted,
		Items:     []*model.JournalItem{{AccountID: "unlinked", Credit: dec("100")}},
	}

	for _, entry := range []*model.JournalEntry{otherTenant, draft, withdrawal, noGoals} {
		require.NoError(t, env.svc.ProcessLedgerEntry(ctx, ctxkeys.SystemActor, entry), entry.ID)
	}

	assert.Empty(t, env.contributions(t, goal.ID))

	err := env.svc.ProcessLedgerEntry(ctx, ctxkeys.SystemActor, &model.JournalEntry{})
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
}

func TestProcessLedgerEntry_DebtReduction(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeDebtReduction, model.NormalBalanceCredit, "5000")

	entry := &model.JournalEntry{
		ID:        "je-payment",
		TenantID:  testTenant,
		EntryDate: testNow,
		Status:    model.JournalEntryStatusPosted,
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("400"), Credit: decimal.Zero}},
	}

	require.NoError(t, env.svc.ProcessLedgerEntry(context.Background(), ctxkeys.SystemActor, entry))

	stored, _ := env.state(t, goal.ID)
	assert.Equal(t, "400", stored.CurrentAmount.String())
}

func TestProcessLedgerEntry_ExpenseReductionUsesHistory(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeExpenseReduction, model.NormalBalanceDebit, "600")

	for _, month := range []int{3, 4, 5} {
		dbtest.SeedEntry(t, env.db, &model.JournalEntry{
			TenantID:  testTenant,
			EntryDate: date(2024, month, 20),
			Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("80"), Credit: decimal.Zero}},
		})
	}
	// Outside the three month window.
	dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 1, 20),
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("500"), Credit: decimal.Zero}},
	})

	entry := dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 6, 15),
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("50"), Credit: decimal.Zero}},
	})

	require.NoError(t, env.svc.ProcessLedgerEntry(context.Background(), ctxkeys.SystemActor, entry))

	contributions := env.contributions(t, goal.ID)
	require.Len(t, contributions, 1)
	assert.Equal(t, "30", contributions[0].ContributionAmount.String())
}

func TestProcessLedgerEntry_ExpenseReductionRoundsUnevenAverage(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeExpenseReduction, model.NormalBalanceDebit, "600")

	for month, debit := range map[int]string{3: "80", 4: "80", 5: "81"} {
		dbtest.SeedEntry(t, env.db, &model.JournalEntry{
			TenantID:  testTenant,
			EntryDate: date(2024, month, 20),
			Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec(debit), Credit: decimal.Zero}},
		})
	}

	entry := dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 6, 15),
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Debit: dec("50"), Credit: decimal.Zero}},
	})

	require.NoError(t, env.svc.ProcessLedgerEntry(context.Background(), ctxkeys.SystemActor, entry))

	contributions := env.contributions(t, goal.ID)
	require.Len(t, contributions, 1)
	assert.Equal(t, "30.3333", contributions[0].ContributionAmount.String())

	stored, _ := env.state(t, goal.ID)
	assert.Equal(t, "30.3333", stored.CurrentAmount.String())
}

func TestSyncLedger(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000")
	ctx := context.Background()

	for _, day := range []int{1, 2} {
		dbtest.SeedEntry(t, env.db, &model.JournalEntry{
			TenantID:  testTenant,
			EntryDate: date(2024, 5, day),
			Items:     []*model.JournalItem{{AccountID: goal.AccountID, Credit: dec("100"), Debit: decimal.Zero}},
		})
	}
	dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 5, 3),
		Status:    model.JournalEntryStatusDraft,
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Credit: dec("100"), Debit: decimal.Zero}},
	})
	dbtest.SeedEntry(t, env.db, &model.JournalEntry{
		TenantID:  testTenant,
		EntryDate: date(2024, 4, 1),
		Items:     []*model.JournalItem{{AccountID: goal.AccountID, Credit: dec("100"), Debit: decimal.Zero}},
	})

	processed, err := env.svc.SyncLedger(ctx, ctxkeys.SystemActor, date(2024, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	processed, err = env.svc.SyncLedger(ctx, ctxkeys.SystemActor, date(2024, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	stored, _ := env.state(t, goal.ID)
	assert.Equal(t, "200", stored.CurrentAmount.String())
	assert.Len(t, env.contributions(t, goal.ID), 2)
}

func corruptMilestone(t *testing.T, env *testEnv, goalID string, index int, amount string) {
	t.Helper()

	_, milestones := env.state(t, goalID)
	m := milestones[index]
	m.AchievedAmount = dec(amount)
	m.Status = model.MilestoneStatusPending
	if m.AchievedAmount.GreaterThanOrEqual(m.TargetAmount) {
		m.Status = model.MilestoneStatusAchieved
		achieved := testNow
		m.AchievedDate = &achieved
	}
	require.NoError(t, env.store.Repos().Milestones.Update(context.Background(), m))
}

func TestReconcileMilestones_RepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300", "700")
	env.contribute(t, goal.ID, "500")
	corruptMilestone(t, env, goal.ID, 1, "700")

	report, err := env.svc.ReconcileMilestones(context.Background(), testTenant, goal.ID)
	require.NoError(t, err)

	assert.True(t, report.Diverged())
	require.Len(t, report.Changes, 1)
	assert.True(t, report.Changes[0].DateCleared)
	assert.Equal(t, "500", report.Pool.String())

	_, milestones := env.state(t, goal.ID)
	assert.Equal(t, "300", milestones[0].AchievedAmount.String())
	assert.NotNil(t, milestones[0].AchievedDate)
	assert.Equal(t, "200", milestones[1].AchievedAmount.String())
	assert.Equal(t, model.MilestoneStatusPending, milestones[1].Status)
	assert.Nil(t, milestones[1].AchievedDate)

	again, err := env.svc.ReconcileMilestones(context.Background(), testTenant, goal.ID)
	require.NoError(t, err)
	assert.False(t, again.Diverged())
}

func TestReconcileMilestones_AgreesAfterIncrementalHistory(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "150", "350", "500")
	for _, amount := range []string{"120", "75.5", "210", "44.5", "300"} {
		env.contribute(t, goal.ID, amount)
	}

	report, err := env.svc.ReconcileMilestones(context.Background(), testTenant, goal.ID)
	require.NoError(t, err)

	assert.False(t, report.Diverged())
}

func TestReconcileMilestones_WrongTenant(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300")

	_, err := env.svc.ReconcileMilestones(context.Background(), "other-tenant", goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestPreviewReconcile_DoesNotWrite(t *testing.T) {
	env := newTestEnv(t)
	goal := env.createGoal(t, model.GoalTypeSavings, model.NormalBalanceCredit, "1000", "300", "700")
	env.contribute(t, goal.ID, "500")
	corruptMilestone(t, env, goal.ID, 1, "700")

	report, err := env.svc.PreviewReconcile(context.Background(), goal.ID)
	require.NoError(t, err)
	assert.True(t, report.Diverged())
	assert.Equal(t, "200", report.Milestones[1].AchievedAmount.String())

	_, milestones := env.state(t, goal.ID)
	assert.Equal(t, "700", milestones[1].AchievedAmount.String())
}
