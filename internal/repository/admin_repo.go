package repository

import (
	"context"
	"time"

	"trxearn/internal/domain"
	"trxearn/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers         int64         `json:"total_users"`
	BlockedUsers       int64         `json:"blocked_users"`
	VerifiedReferrals  int64         `json:"verified_referrals"`
	TotalAdsWatched    int64         `json:"total_ads_watched"`
	TotalBalance       domain.Amount `json:"total_balance"`
	TotalEarned        domain.Amount `json:"total_earned"`
	TotalWithdrawn     domain.Amount `json:"total_withdrawn"`
	TotalTransactions  int64         `json:"total_transactions"`
	ActiveTasks        int64         `json:"active_tasks"`
	TaskCompletions    int64         `json:"task_completions"`
	PendingWithdrawals int64         `json:"pending_withdrawals"`
	PendingAmount      domain.Amount `json:"pending_amount"`
	CommissionsPaid    domain.Amount `json:"commissions_paid"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AmountPoint struct {
	Date   string        `json:"date"`
	Amount domain.Amount `json:"amount"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) WithTx(tx *gorm.DB) *AdminRepository {
	return &AdminRepository{db: tx}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s DashboardStats

	totals, err := NewAccountRepository(db).Totals(ctx)
	if err != nil {
		return nil, err
	}
	s.TotalUsers = totals.Accounts
	s.BlockedUsers = totals.Blocked
	s.VerifiedReferrals = totals.Verified
	s.TotalAdsWatched = totals.AdsWatched
	s.TotalBalance = totals.TotalBalance
	s.TotalEarned = totals.TotalEarned
	s.TotalWithdrawn = totals.TotalWithdrawn

	if err := db.Model(&models.Transaction{}).Count(&s.TotalTransactions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Task{}).Where("is_active = ?", true).Count(&s.ActiveTasks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.TaskCompletion{}).Count(&s.TaskCompletions).Error; err != nil {
		return nil, err
	}

	var pending struct {
		Count  int64
		Amount int64
	}
	if err := db.Model(&models.Withdrawal{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("status = ?", domain.WithdrawalPending).
		Scan(&pending).Error; err != nil {
		return nil, err
	}
	s.PendingWithdrawals = pending.Count
	s.PendingAmount = domain.Amount(pending.Amount)

	if s.CommissionsPaid, err = NewReferralRepository(db).PlatformTotal(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AdminRepository) CreateAction(ctx context.Context, a *models.AdminAction) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListActions returns the admin log newest first, filtered by action when set.
func (r *AdminRepository) ListActions(ctx context.Context, action, target string, limit int) ([]models.AdminAction, error) {
	q := r.db.WithContext(ctx).Model(&models.AdminAction{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if target != "" {
		q = q.Where("target_account = ?", target)
	}
	var list []models.AdminAction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// SignupsByDay returns daily account creation counts for the last N days.
func (r *AdminRepository) SignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// EarningsByDay returns the daily sum of reward credits for the last N days.
func (r *AdminRepository) EarningsByDay(ctx context.Context, days int) ([]AmountPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []AmountPoint
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("DATE(created_at) as date, COALESCE(SUM(amount), 0) as amount").
		Where("created_at >= ? AND category IN ?", since, []string{
			domain.CategoryAdView,
			domain.CategoryTaskCompletion,
			domain.CategoryReferralVerification,
			domain.CategoryReferralCommission,
		}).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// WithdrawalsByDay returns daily withdrawal request counts for the last N days.
func (r *AdminRepository) WithdrawalsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
