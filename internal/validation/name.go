package validation

import (
	"fmt"
	"strings"
)

var (
	ErrNameRequired = fmt.Errorf("%w: name is required", ErrInvalidInput)
	ErrNameTooLong  = fmt.Errorf("%w: name is too long (max 100 characters)", ErrInvalidInput)
)

// ValidateName validates goal and milestone names
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return ErrNameRequired
	}

	if len(trimmed) > 100 {
		return ErrNameTooLong
	}

	return nil
}
