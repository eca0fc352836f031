package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"trxearn/config"
	"trxearn/internal/domain"
	"trxearn/internal/events"
	"trxearn/internal/metrics"
	"trxearn/internal/models"
	"trxearn/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService applies every balance mutation. Each call runs in one database
// transaction that holds the account row lock for its read-check-write.
type LedgerService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	txRepo      *repository.TransactionRepository
	taskRepo    *repository.TaskRepository
	adminRepo   *repository.AdminRepository
	referrals   *ReferralService
	rewards     config.RewardsConfig
	events      events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewLedgerService(
	db *gorm.DB,
	referrals *ReferralService,
	rewards config.RewardsConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
		txRepo:      repository.NewTransactionRepository(db),
		taskRepo:    repository.NewTaskRepository(db),
		adminRepo:   repository.NewAdminRepository(db),
		referrals:   referrals,
		rewards:     rewards,
		events:      publisher,
		logger:      logger.Named("ledger"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Credit increases balance and totalEarned and appends a transaction.
func (s *LedgerService) Credit(ctx context.Context, accountID string, amount domain.Amount, category, reference string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var entry *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		entry, err = applyCredit(ctx, tx, a, amount, category, reference, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	return entry, nil
}

// Debit decreases balance and increases totalWithdrawn. It never takes the balance below zero.
func (s *LedgerService) Debit(ctx context.Context, accountID string, amount domain.Amount, category, reference string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var entry *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		entry, err = applyDebit(ctx, tx, a, amount, category, reference, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	return entry, nil
}

type AdWatchResult struct {
	Reward             domain.Amount  `json:"reward"`
	NewBalance         domain.Amount  `json:"new_balance"`
	AdsWatched         int            `json:"ads_watched"`
	NextAdAt           time.Time      `json:"next_ad_available_at"`
	IsVerifiedReferral bool           `json:"is_verified_referral"`
	Verification       *PayoutOutcome `json:"referral_verification,omitempty"`
}

// WatchAd credits the ad reward. The count, timestamp and balance change land in one row update.
func (s *LedgerService) WatchAd(ctx context.Context, accountID string) (*AdWatchResult, error) {
	var (
		entry *models.Transaction
		a     *models.Account
	)
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		a, err = s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.IsBlocked {
			return domain.ErrBlocked
		}
		if remaining := a.CooldownRemaining(now, s.rewards.AdCooldown); remaining > 0 {
			return &domain.CooldownError{Remaining: remaining}
		}
		a.AdsWatched++
		a.LastAdWatchAt = &now
		entry, err = applyCredit(ctx, tx, a, s.rewards.AdReward, domain.CategoryAdView, "", now)
		return err
	})
	if err != nil {
		var cooldown *domain.CooldownError
		if errors.As(err, &cooldown) {
			metrics.AdWatchesRejected.Inc()
		}
		return nil, err
	}
	recordApplied(entry)

	res := &AdWatchResult{
		Reward:             s.rewards.AdReward,
		NewBalance:         a.Balance,
		AdsWatched:         a.AdsWatched,
		NextAdAt:           now.Add(s.rewards.AdCooldown),
		IsVerifiedReferral: a.IsVerifiedReferral,
	}
	if a.ReferredBy != nil && !a.IsVerifiedReferral && a.AdsWatched >= s.rewards.VerificationThreshold {
		// A nil outcome means a concurrent watch already verified the account.
		v := s.referrals.TryVerify(ctx, accountID)
		res.Verification = v
		res.IsVerifiedReferral = v == nil || v.ReferrerID != ""
	}
	return res, nil
}

type TaskCompletionResult struct {
	TaskID     uint          `json:"task_id"`
	Reward     domain.Amount `json:"reward"`
	NewBalance domain.Amount `json:"new_balance"`
}

// CompleteTask credits a task reward once per account.
func (s *LedgerService) CompleteTask(ctx context.Context, accountID string, taskID uint) (*TaskCompletionResult, error) {
	return s.completeTask(ctx, accountID, taskID, "")
}

// VerifyTask completes a manually verified task on the account's behalf and logs the admin action.
func (s *LedgerService) VerifyTask(ctx context.Context, accountID string, taskID uint, adminID string) (*TaskCompletionResult, error) {
	return s.completeTask(ctx, accountID, taskID, adminID)
}

func (s *LedgerService) completeTask(ctx context.Context, accountID string, taskID uint, adminID string) (*TaskCompletionResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsActive {
		return nil, domain.ErrTaskInactive
	}
	var (
		entry *models.Transaction
		a     *models.Account
	)
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		a, err = s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.IsBlocked {
			return domain.ErrBlocked
		}
		taskRepo := s.taskRepo.WithTx(tx)
		done, err := taskRepo.IsCompleted(ctx, accountID, taskID)
		if err != nil {
			return err
		}
		if done {
			return domain.ErrAlreadyCompleted
		}
		if err := taskRepo.CreateCompletion(ctx, &models.TaskCompletion{
			AccountID: accountID,
			TaskID:    taskID,
			Reward:    task.Reward,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		entry, err = applyCredit(ctx, tx, a, task.Reward, domain.CategoryTaskCompletion, strconv.FormatUint(uint64(taskID), 10), now)
		if err != nil {
			return err
		}
		if adminID == "" {
			return nil
		}
		return s.adminRepo.WithTx(tx).CreateAction(ctx, &models.AdminAction{
			Action:        domain.AdminActionTaskVerify,
			TargetAccount: accountID,
			Amount:        task.Reward,
			Reason:        task.Title,
			AdminID:       adminID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	return &TaskCompletionResult{TaskID: taskID, Reward: task.Reward, NewBalance: a.Balance}, nil
}

// AdminAdjust applies a signed manual correction: admin_credit when positive, admin_debit when negative.
func (s *LedgerService) AdminAdjust(ctx context.Context, accountID string, amount domain.Amount, reason, adminID string) (*models.Transaction, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	var entry *models.Transaction
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if amount > 0 {
			entry, err = applyCredit(ctx, tx, a, amount, domain.CategoryAdminCredit, reason, now)
		} else {
			entry, err = applyDebit(ctx, tx, a, amount.Abs(), domain.CategoryAdminDebit, reason, now)
		}
		if err != nil {
			return err
		}
		return s.adminRepo.WithTx(tx).CreateAction(ctx, &models.AdminAction{
			Action:        domain.AdminActionBalanceAdjustment,
			TargetAccount: accountID,
			Amount:        amount,
			Reason:        reason,
			AdminID:       adminID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	s.logger.Info("balance adjusted",
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()),
		zap.String("admin_id", adminID))
	s.events.Publish(ctx, events.Event{
		Type:      events.TypeBalanceAdjusted,
		AccountID: accountID,
		Amount:    amount,
		Reference: reason,
		Timestamp: now,
	})
	return entry, nil
}

type AdStatus struct {
	CanWatchAd      bool          `json:"can_watch_ad"`
	RemainingTime   int64         `json:"remaining_time"`
	AdsWatched      int           `json:"ads_watched"`
	LastAdWatch     *time.Time    `json:"last_ad_watch"`
	AdReward        domain.Amount `json:"ad_reward"`
	CooldownSeconds int64         `json:"cooldown_seconds"`
}

func (s *LedgerService) AdStatus(ctx context.Context, accountID string) (*AdStatus, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	remaining := a.CooldownRemaining(s.now(), s.rewards.AdCooldown)
	st := &AdStatus{
		CanWatchAd:      remaining == 0 && !a.IsBlocked,
		AdsWatched:      a.AdsWatched,
		LastAdWatch:     a.LastAdWatchAt,
		AdReward:        s.rewards.AdReward,
		CooldownSeconds: int64(s.rewards.AdCooldown / time.Second),
	}
	if remaining > 0 {
		st.RemainingTime = (&domain.CooldownError{Remaining: remaining}).RemainingSeconds()
	}
	return st, nil
}

type AdStats struct {
	AdsWatched               int           `json:"ads_watched"`
	TotalEarnedFromAds       domain.Amount `json:"total_earned_from_ads"`
	AverageEarningsPerAd     domain.Amount `json:"average_earnings_per_ad"`
	IsVerifiedReferral       bool          `json:"is_verified_referral"`
	AdsNeededForVerification int           `json:"ads_needed_for_verification"`
}

func (s *LedgerService) AdStats(ctx context.Context, accountID string) (*AdStats, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	earned, err := s.txRepo.SumByCategory(ctx, accountID, time.Time{}, domain.CategoryAdView)
	if err != nil {
		return nil, err
	}
	st := &AdStats{
		AdsWatched:           a.AdsWatched,
		TotalEarnedFromAds:   earned,
		AverageEarningsPerAd: s.rewards.AdReward,
		IsVerifiedReferral:   a.IsVerifiedReferral,
	}
	if a.AdsWatched > 0 {
		st.AverageEarningsPerAd = earned / domain.Amount(a.AdsWatched)
	}
	if need := s.rewards.VerificationThreshold - a.AdsWatched; need > 0 {
		st.AdsNeededForVerification = need
	}
	return st, nil
}

// History returns the account's most recent transactions.
func (s *LedgerService) History(ctx context.Context, accountID string, limit int) ([]models.Transaction, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.txRepo.ListByAccount(ctx, accountID, limit)
}
