package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository can run
// either directly against the pool or inside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Repositories struct {
	Goals         GoalRepository
	Contributions ContributionRepository
	Milestones    MilestoneRepository
	Trackings     TrackingRepository
	Ledger        LedgerRepository
}

func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Goals:         NewGoalRepository(db),
		Contributions: NewContributionRepository(db),
		Milestones:    NewMilestoneRepository(db),
		Trackings:     NewTrackingRepository(db),
		Ledger:        NewLedgerRepository(db),
	}
}

// Store hands out repositories bound to the connection pool, or to a single
// transaction through InTx.
type Store interface {
	Repos() *Repositories
	InTx(ctx context.Context, fn func(repos *Repositories) error) error
}

type sqlStore struct {
	db    *sqlx.DB
	repos *Repositories
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, repos: NewRepositories(db)}
}

func (s *sqlStore) Repos() *Repositories {
	return s.repos
}

// InTx runs fn inside one transaction. Any error returned by fn rolls back
// every write made through the repositories it was given.
func (s *sqlStore) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(NewRepositories(tx))
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
