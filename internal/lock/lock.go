// Package lock provides mutual exclusion keyed by a string, used to serialize
// all writes to a single goal.
package lock

import (
	"context"
	"errors"
)

var (
	ErrEmptyKey = errors.New("lock key cannot be empty")
	ErrNilFn    = errors.New("lock function is nil")
)

// Locker runs fn while holding the lock for key. The lock is released when fn returns.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// GoalKey is the lock key guarding one goal's accumulation state.
func GoalKey(goalID string) string {
	return "lock:goal:" + goalID
}

func validate(key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	if fn == nil {
		return ErrNilFn
	}
	return nil
}
