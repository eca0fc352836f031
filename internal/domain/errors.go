package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrNotFound = errors.New("not found")

var (
	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrWithdrawalNotFound = fmt.Errorf("withdrawal %w", ErrNotFound)
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive with at most 6 decimal places")
	ErrBelowMinimum        = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAddress      = errors.New("invalid TRX wallet address")
	ErrPendingExists       = errors.New("a pending withdrawal request already exists")
	ErrCooldown            = errors.New("ad cooldown active")
	ErrAlreadyCompleted    = errors.New("task already completed")
	ErrTaskInactive        = errors.New("task is not active")
	ErrNotPending          = errors.New("withdrawal is not pending")
	ErrNotApproved         = errors.New("withdrawal is not approved")
	ErrBlocked             = errors.New("account is blocked")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrNotOwner            = errors.New("access denied")
)

// CooldownError is returned by ad watches inside the cooldown window.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %ds remaining", ErrCooldown, e.RemainingSeconds())
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// RemainingSeconds rounds up so a client never retries too early.
func (e *CooldownError) RemainingSeconds() int64 {
	return int64(math.Ceil(e.Remaining.Seconds()))
}
