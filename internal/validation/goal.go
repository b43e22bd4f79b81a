package validation

import (
	"fmt"
	"time"

	"github.com/templui/goalflow/internal/model"
)

var (
	ErrUnknownGoalType         = fmt.Errorf("%w: unknown goal type", ErrInvalidInput)
	ErrUnknownContributionType = fmt.Errorf("%w: unknown contribution type", ErrInvalidInput)
	ErrTargetDateBeforeStart   = fmt.Errorf("%w: target date must not be before start date", ErrInvalidInput)
	ErrMissingAccount          = fmt.Errorf("%w: account is required", ErrInvalidInput)
)

func ValidateGoalType(goalType string) error {
	switch goalType {
	case model.GoalTypeSavings, model.GoalTypeDebtReduction, model.GoalTypeExpenseReduction:
		return nil
	}
	return ErrUnknownGoalType
}

func ValidateContributionType(contributionType string) error {
	switch contributionType {
	case model.ContributionTypeManual, model.ContributionTypeAutomatic:
		return nil
	}
	return ErrUnknownContributionType
}

func ValidateGoalDates(start, target time.Time) error {
	if target.Before(start) {
		return ErrTargetDateBeforeStart
	}
	return nil
}

func ValidateAccountID(accountID string) error {
	if accountID == "" {
		return ErrMissingAccount
	}
	return nil
}
