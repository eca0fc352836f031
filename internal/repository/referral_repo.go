package repository

import (
	"context"
	"time"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
)

// ReferralRepository stores the commission audit trail.
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) WithTx(tx *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: tx}
}

// CreateCommission persists a commission row. The withdrawal id is unique.
func (r *ReferralRepository) CreateCommission(ctx context.Context, c *models.ReferralCommission) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// CommissionExists reports whether the withdrawal already paid a commission.
func (r *ReferralRepository) CommissionExists(ctx context.Context, withdrawalID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("withdrawal_id = ?", withdrawalID).
		Count(&n).Error
	return n > 0, err
}

// ListByReferrer returns the referrer's commissions, newest first.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string, limit int) ([]models.ReferralCommission, error) {
	var list []models.ReferralCommission
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// SumByReferrer sums commissions created at or after since (all time when since is zero).
func (r *ReferralRepository) SumByReferrer(ctx context.Context, referrerID string, since time.Time) (domain.Amount, error) {
	var sum int64
	q := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("referrer_id = ?", referrerID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Scan(&sum).Error
	return domain.Amount(sum), err
}

// SumByReferred sums the commissions one referred account has generated for its referrer.
func (r *ReferralRepository) SumByReferred(ctx context.Context, referredID string) (domain.Amount, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("referred_id = ?", referredID).
		Scan(&sum).Error
	return domain.Amount(sum), err
}

// PlatformTotal sums every commission paid out to referrers.
func (r *ReferralRepository) PlatformTotal(ctx context.Context) (domain.Amount, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return domain.Amount(sum), err
}
