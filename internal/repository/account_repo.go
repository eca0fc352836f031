package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

// generateReferralCode returns a 16-character uppercase hex code (64 random bits).
func generateReferralCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Create inserts a new account with a fresh referral code, retrying on code collision.
func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	exists, err := r.Exists(ctx, a.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateAccount
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return err
		}
		a.ReferralCode = code
		createErr := r.db.WithContext(ctx).Create(a).Error
		if createErr == nil {
			return nil
		}
		// Lost a registration race on the primary key.
		if exists, err := r.Exists(ctx, a.ID); err == nil && exists {
			return domain.ErrDuplicateAccount
		}
		var n int64
		if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("referral_code = ?", code).Count(&n).Error; err != nil || n == 0 {
			return fmt.Errorf("create account: %w", createErr)
		}
		// Collision: retry with new code
	}
	return fmt.Errorf("failed to generate a unique referral code after retries")
}

func (r *AccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return &a, nil
}

// GetByIDForUpdate loads the account with a row lock. Call inside a transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&a).Error
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) Save(ctx context.Context, a *models.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

type AccountFilter struct {
	Search  string
	Blocked *bool
	Limit   int
	Offset  int
}

// List returns accounts newest first plus the total matching the filter.
func (r *AccountRepository) List(ctx context.Context, f AccountFilter) ([]models.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("id LIKE ? OR username LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like, like)
	}
	if f.Blocked != nil {
		q = q.Where("is_blocked = ?", *f.Blocked)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Account
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

// ListReferrals returns the accounts referred by referrerID, oldest first.
func (r *AccountRepository) ListReferrals(ctx context.Context, referrerID string) ([]models.Account, error) {
	var list []models.Account
	err := r.db.WithContext(ctx).
		Where("referred_by = ?", referrerID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// CountReferrals returns total and verified referral counts for a referrer.
func (r *AccountRepository) CountReferrals(ctx context.Context, referrerID string) (total, verified int64, err error) {
	var row struct {
		Total    int64
		Verified int64
	}
	err = r.db.WithContext(ctx).Model(&models.Account{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_verified_referral THEN 1 ELSE 0 END), 0) AS verified").
		Where("referred_by = ?", referrerID).
		Scan(&row).Error
	return row.Total, row.Verified, err
}

// ListVerifiedReferralIDs returns the ids of verified accounts referred by referrerID.
func (r *AccountRepository) ListVerifiedReferralIDs(ctx context.Context, referrerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("referred_by = ? AND is_verified_referral = ?", referrerID, true).
		Pluck("id", &ids).Error
	return ids, err
}

// AccountTotals aggregates platform-wide account figures.
type AccountTotals struct {
	Accounts       int64
	Blocked        int64
	Verified       int64
	TotalBalance   domain.Amount
	TotalEarned    domain.Amount
	TotalWithdrawn domain.Amount
	AdsWatched     int64
}

func (r *AccountRepository) Totals(ctx context.Context) (AccountTotals, error) {
	var t AccountTotals
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select(`COUNT(*) AS accounts,
			COALESCE(SUM(CASE WHEN is_blocked THEN 1 ELSE 0 END), 0) AS blocked,
			COALESCE(SUM(CASE WHEN is_verified_referral THEN 1 ELSE 0 END), 0) AS verified,
			COALESCE(SUM(balance), 0) AS total_balance,
			COALESCE(SUM(total_earned), 0) AS total_earned,
			COALESCE(SUM(total_withdrawn), 0) AS total_withdrawn,
			COALESCE(SUM(ads_watched), 0) AS ads_watched`).
		Scan(&t).Error
	return t, err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
