package validation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is wrapped by every validation error.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrNegativeAmount    = fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	ErrNonPositiveAmount = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrAmountPrecision   = fmt.Errorf("%w: amount has more than 4 decimal places", ErrInvalidInput)
)

// maxScale matches the NUMERIC(20, 4) columns amounts are stored in.
const maxScale = 4

// ValidateContributionAmount accepts zero (a no-op contribution) but never a negative amount.
func ValidateContributionAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return validateScale(amount)
}

// ValidateTargetAmount validates goal and milestone targets.
func ValidateTargetAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return validateScale(amount)
}

func validateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(maxScale)) {
		return ErrAmountPrecision
	}
	return nil
}
