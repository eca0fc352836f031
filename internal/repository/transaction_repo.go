package repository

import (
	"context"
	"time"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository reads and appends ledger rows. Rows are never updated.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListByAccount returns the most recent transactions first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// Sum returns the signed sum of every transaction on the account.
func (r *TransactionRepository) Sum(ctx context.Context, accountID string) (domain.Amount, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ?", accountID).
		Scan(&sum).Error
	return domain.Amount(sum), err
}

// SumByCategory sums the account's transactions in the given categories created at or after since.
// A zero since means all time.
func (r *TransactionRepository) SumByCategory(ctx context.Context, accountID string, since time.Time, categories ...string) (domain.Amount, error) {
	var sum int64
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ? AND category IN ?", accountID, categories)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Scan(&sum).Error
	return domain.Amount(sum), err
}

func (r *TransactionRepository) CountByCategory(ctx context.Context, accountID, category string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? AND category = ?", accountID, category).
		Count(&n).Error
	return n, err
}

// Exists reports whether a transaction with this account, category and reference was written.
func (r *TransactionRepository) Exists(ctx context.Context, accountID, category, reference string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? AND category = ? AND reference = ?", accountID, category, reference).
		Count(&n).Error
	return n > 0, err
}

// References returns the references of the account's transactions in a category.
func (r *TransactionRepository) References(ctx context.Context, accountID, category string) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? AND category = ?", accountID, category).
		Pluck("reference", &refs).Error
	return refs, err
}

type AccountSum struct {
	AccountID string
	Total     domain.Amount
}

// TopByCategories ranks accounts by their summed earnings in the given categories.
func (r *TransactionRepository) TopByCategories(ctx context.Context, limit int, categories ...string) ([]AccountSum, error) {
	var rows []AccountSum
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("account_id, SUM(amount) AS total").
		Where("category IN ?", categories).
		Group("account_id").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
