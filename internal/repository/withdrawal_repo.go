package repository

import (
	"context"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).First(&w, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrWithdrawalNotFound)
	}
	return &w, nil
}

// GetByIDForUpdate loads the withdrawal with a row lock. Call inside a transaction.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrWithdrawalNotFound)
	}
	return &w, nil
}

func (r *WithdrawalRepository) Update(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Save(w).Error
}

// HasPending reports whether the account has a withdrawal awaiting review.
func (r *WithdrawalRepository) HasPending(ctx context.Context, accountID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("account_id = ? AND status = ?", accountID, domain.WithdrawalPending).
		Count(&n).Error
	return n > 0, err
}

func (r *WithdrawalRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// List returns withdrawals in a status (all when status is empty). Pending reviews oldest first.
func (r *WithdrawalRepository) List(ctx context.Context, status string, limit int) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	q := r.db.WithContext(ctx).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if status == domain.WithdrawalPending {
		q = q.Order("created_at ASC, id ASC")
	} else {
		q = q.Order("created_at DESC, id DESC")
	}
	err := q.Find(&list).Error
	return list, err
}

// StatusTotals is one row of a group-by-status aggregate.
type StatusTotals struct {
	Status     string
	Count      int64
	Amount     domain.Amount
	Commission domain.Amount
	NetAmount  domain.Amount
}

// TotalsByStatus aggregates withdrawals per status, scoped to one account when accountID is set.
func (r *WithdrawalRepository) TotalsByStatus(ctx context.Context, accountID string) ([]StatusTotals, error) {
	var rows []StatusTotals
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(commission), 0) AS commission, COALESCE(SUM(net_amount), 0) AS net_amount").
		Group("status")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	err := q.Scan(&rows).Error
	return rows, err
}

// ListSettledByReferrer returns settled withdrawals whose commission payee is referrerID.
func (r *WithdrawalRepository) ListSettledByReferrer(ctx context.Context, referrerID string) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND status IN ?", referrerID,
			[]string{domain.WithdrawalApproved, domain.WithdrawalCompleted}).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
