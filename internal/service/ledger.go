package service

import (
	"context"
	"time"

	"trxearn/internal/domain"
	"trxearn/internal/metrics"
	"trxearn/internal/models"
	"trxearn/internal/repository"

	"gorm.io/gorm"
)

// applyCredit adds amount to a locked account and appends the ledger row.
// tx must hold the row lock taken by GetByIDForUpdate.
func applyCredit(ctx context.Context, tx *gorm.DB, a *models.Account, amount domain.Amount, category, reference string, now time.Time) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	a.Balance += amount
	a.TotalEarned += amount
	return appendEntry(ctx, tx, a, amount, category, reference, now)
}

// applyDebit removes amount from a locked account and appends the ledger row.
func applyDebit(ctx context.Context, tx *gorm.DB, a *models.Account, amount domain.Amount, category, reference string, now time.Time) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if amount > a.Balance {
		return nil, domain.ErrInsufficientBalance
	}
	a.Balance -= amount
	a.TotalWithdrawn += amount
	return appendEntry(ctx, tx, a, -amount, category, reference, now)
}

func appendEntry(ctx context.Context, tx *gorm.DB, a *models.Account, signed domain.Amount, category, reference string, now time.Time) (*models.Transaction, error) {
	if err := repository.NewAccountRepository(tx).Save(ctx, a); err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		AccountID:    a.ID,
		Amount:       signed,
		Category:     category,
		Reference:    reference,
		BalanceAfter: a.Balance,
		CreatedAt:    now,
	}
	if err := repository.NewTransactionRepository(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// recordApplied counts committed ledger rows.
func recordApplied(entries ...*models.Transaction) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Amount > 0 {
			metrics.LedgerCredits.WithLabelValues(e.Category).Inc()
		} else {
			metrics.LedgerDebits.WithLabelValues(e.Category).Inc()
		}
	}
}

type PayoutStatus string

const (
	PayoutPaid    PayoutStatus = "paid"
	PayoutSkipped PayoutStatus = "skipped"
	PayoutFailed  PayoutStatus = "failed"
)

// PayoutOutcome reports a secondary credit to a referrer. Failed payouts never fail
// the primary operation; reconciliation finds them later.
type PayoutOutcome struct {
	Kind       string        `json:"kind"`
	Status     PayoutStatus  `json:"status"`
	ReferrerID string        `json:"referrer_id,omitempty"`
	ReferredID string        `json:"referred_id"`
	Amount     domain.Amount `json:"amount"`
	Reason     string        `json:"reason,omitempty"`
	Err        error         `json:"-"`
}

func (o *PayoutOutcome) Failed() bool { return o != nil && o.Status == PayoutFailed }
