package service

import (
	"context"
	"errors"
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

// ReferralService verifies referred accounts and pays referrers their rewards and commissions.
type ReferralService struct {
	db           *gorm.DB
	accountRepo  *repository.AccountRepository
	txRepo       *repository.TransactionRepository
	referralRepo *repository.ReferralRepository
	rewards      config.RewardsConfig
	telegram     config.TelegramConfig
	events       events.Publisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewReferralService(
	db *gorm.DB,
	rewards config.RewardsConfig,
	telegram config.TelegramConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *ReferralService {
	return &ReferralService{
		db:           db,
		accountRepo:  repository.NewAccountRepository(db),
		txRepo:       repository.NewTransactionRepository(db),
		referralRepo: repository.NewReferralRepository(db),
		rewards:      rewards,
		telegram:     telegram,
		events:       publisher,
		logger:       logger.Named("referral"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// TryVerify marks a referred account verified once it reaches the ad threshold, then pays
// the referrer. It returns nil when there was nothing to do.
func (s *ReferralService) TryVerify(ctx context.Context, accountID string) *PayoutOutcome {
	var referrerID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.ReferredBy == nil || a.IsVerifiedReferral || a.AdsWatched < s.rewards.VerificationThreshold {
			return nil
		}
		now := s.now()
		a.IsVerifiedReferral = true
		a.VerifiedAt = &now
		referrerID = *a.ReferredBy
		return s.accountRepo.WithTx(tx).Save(ctx, a)
	})
	if err != nil {
		s.logger.Error("referral verification failed", zap.String("account_id", accountID), zap.Error(err))
		return &PayoutOutcome{
			Kind:       domain.CategoryReferralVerification,
			Status:     PayoutFailed,
			ReferredID: accountID,
			Amount:     s.rewards.ReferralReward,
			Reason:     "verification not recorded",
			Err:        err,
		}
	}
	if referrerID == "" {
		return nil
	}
	s.logger.Info("referral verified", zap.String("account_id", accountID), zap.String("referrer_id", referrerID))
	return s.PayVerificationReward(ctx, referrerID, accountID)
}

// PayVerificationReward credits the referrer for a verified referral. It is idempotent:
// a referrer is paid at most once per referred account.
func (s *ReferralService) PayVerificationReward(ctx context.Context, referrerID, referredID string) *PayoutOutcome {
	out := &PayoutOutcome{
		Kind:       domain.CategoryReferralVerification,
		ReferrerID: referrerID,
		ReferredID: referredID,
		Amount:     s.rewards.ReferralReward,
	}
	var entry *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		referrer, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, referrerID)
		if err != nil {
			return err
		}
		paid, err := s.txRepo.WithTx(tx).Exists(ctx, referrerID, domain.CategoryReferralVerification, referredID)
		if err != nil {
			return err
		}
		if paid {
			return nil
		}
		entry, err = applyCredit(ctx, tx, referrer, s.rewards.ReferralReward, domain.CategoryReferralVerification, referredID, s.now())
		return err
	})
	return s.finish(ctx, out, entry, err, events.TypeReferralVerified, "")
}

// DistributeCommission credits a settled withdrawal's commission to the referrer captured at
// approval. Without a referrer the platform keeps the commission. Idempotent per withdrawal.
func (s *ReferralService) DistributeCommission(ctx context.Context, w *models.Withdrawal) *PayoutOutcome {
	out := &PayoutOutcome{
		Kind:       domain.CategoryReferralCommission,
		ReferredID: w.AccountID,
		Amount:     w.Commission,
	}
	if w.ReferrerID == nil {
		out.Status = PayoutSkipped
		out.Reason = "no verified referrer"
		metrics.ReferralPayouts.WithLabelValues(out.Kind, string(out.Status)).Inc()
		return out
	}
	out.ReferrerID = *w.ReferrerID
	if !w.Commission.IsPositive() {
		out.Status = PayoutSkipped
		out.Reason = "zero commission"
		metrics.ReferralPayouts.WithLabelValues(out.Kind, string(out.Status)).Inc()
		return out
	}

	var entry *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		referrer, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, out.ReferrerID)
		if err != nil {
			return err
		}
		referralRepo := s.referralRepo.WithTx(tx)
		paid, err := referralRepo.CommissionExists(ctx, w.ID)
		if err != nil {
			return err
		}
		if paid {
			return nil
		}
		now := s.now()
		entry, err = applyCredit(ctx, tx, referrer, w.Commission, domain.CategoryReferralCommission, w.Reference, now)
		if err != nil {
			return err
		}
		return referralRepo.CreateCommission(ctx, &models.ReferralCommission{
			ReferrerID:   out.ReferrerID,
			ReferredID:   w.AccountID,
			WithdrawalID: w.ID,
			Amount:       w.Commission,
			CreatedAt:    now,
		})
	})
	return s.finish(ctx, out, entry, err, events.TypeReferralCommission, w.Reference)
}

func (s *ReferralService) finish(ctx context.Context, out *PayoutOutcome, entry *models.Transaction, err error, eventType, reference string) *PayoutOutcome {
	switch {
	case err != nil:
		out.Status = PayoutFailed
		out.Err = err
		s.logger.Error("referral payout failed",
			zap.String("kind", out.Kind),
			zap.String("referrer_id", out.ReferrerID),
			zap.String("referred_id", out.ReferredID),
			zap.String("amount", out.Amount.String()),
			zap.Error(err))
	case entry == nil:
		out.Status = PayoutSkipped
		out.Reason = "already paid"
	default:
		out.Status = PayoutPaid
		recordApplied(entry)
		s.logger.Info("referral payout applied",
			zap.String("kind", out.Kind),
			zap.String("referrer_id", out.ReferrerID),
			zap.String("referred_id", out.ReferredID),
			zap.String("amount", out.Amount.String()))
		s.events.Publish(ctx, events.Event{
			Type:      eventType,
			AccountID: out.ReferrerID,
			Amount:    out.Amount,
			Reference: reference,
			Timestamp: entry.CreatedAt,
		})
	}
	metrics.ReferralPayouts.WithLabelValues(out.Kind, string(out.Status)).Inc()
	return out
}

// ReferralUser is one sponsored account as shown to its referrer.
type ReferralUser struct {
	AccountID           string        `json:"account_id"`
	Username            string        `json:"username"`
	FirstName           string        `json:"first_name"`
	AdsWatched          int           `json:"ads_watched"`
	IsVerified          bool          `json:"is_verified"`
	TotalEarned         domain.Amount `json:"total_earned"`
	CommissionGenerated domain.Amount `json:"commission_generated"`
	JoinedAt            time.Time     `json:"joined_at"`
}

type ReferralInfo struct {
	ReferralCode            string         `json:"referral_code"`
	ReferralLink            string         `json:"referral_link"`
	TotalReferrals          int            `json:"total_referrals"`
	VerifiedReferrals       int            `json:"verified_referrals"`
	PendingVerification     int            `json:"pending_verification"`
	TotalReferralEarnings   domain.Amount  `json:"total_referral_earnings"`
	Referrals               []ReferralUser `json:"referral_users"`
	VerificationRequirement int            `json:"verification_requirement"`
	VerificationReward      domain.Amount  `json:"verification_reward"`
	CommissionRatePercent   float64        `json:"commission_rate"`
}

func (s *ReferralService) Info(ctx context.Context, accountID string) (*ReferralInfo, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	referred, err := s.accountRepo.ListReferrals(ctx, accountID)
	if err != nil {
		return nil, err
	}
	earnings, err := s.txRepo.SumByCategory(ctx, accountID, time.Time{}, domain.ReferralCategories...)
	if err != nil {
		return nil, err
	}
	info := &ReferralInfo{
		ReferralCode:            a.ReferralCode,
		ReferralLink:            s.telegram.ReferralLink(a.ReferralCode),
		TotalReferrals:          len(referred),
		TotalReferralEarnings:   earnings,
		Referrals:               make([]ReferralUser, 0, len(referred)),
		VerificationRequirement: s.rewards.VerificationThreshold,
		VerificationReward:      s.rewards.ReferralReward,
		CommissionRatePercent:   s.rewards.CommissionRate.Shift(2).InexactFloat64(),
	}
	for _, r := range referred {
		generated, err := s.referralRepo.SumByReferred(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		if r.IsVerifiedReferral {
			info.VerifiedReferrals++
		}
		info.Referrals = append(info.Referrals, ReferralUser{
			AccountID:           r.ID,
			Username:            r.Username,
			FirstName:           r.FirstName,
			AdsWatched:          r.AdsWatched,
			IsVerified:          r.IsVerifiedReferral,
			TotalEarned:         r.TotalEarned,
			CommissionGenerated: generated,
			JoinedAt:            r.CreatedAt,
		})
	}
	info.PendingVerification = info.TotalReferrals - info.VerifiedReferrals
	return info, nil
}

type ReferralStats struct {
	TotalCommissions      domain.Amount               `json:"total_commissions"`
	VerificationRewards   domain.Amount               `json:"verification_rewards"`
	TotalReferralEarnings domain.Amount               `json:"total_referral_earnings"`
	DailyEarnings         domain.Amount               `json:"daily_earnings"`
	WeeklyEarnings        domain.Amount               `json:"weekly_earnings"`
	MonthlyEarnings       domain.Amount               `json:"monthly_earnings"`
	RecentCommissions     []models.ReferralCommission `json:"recent_commissions"`
	TotalReferrals        int64                       `json:"total_referrals"`
	VerifiedReferrals     int64                       `json:"verified_referrals"`
}

// Stats reports commission earnings. Daily, weekly and monthly windows count commissions only.
func (s *ReferralService) Stats(ctx context.Context, accountID string) (*ReferralStats, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var st ReferralStats
	var err error
	if st.TotalCommissions, err = s.referralRepo.SumByReferrer(ctx, accountID, time.Time{}); err != nil {
		return nil, err
	}
	if st.DailyEarnings, err = s.referralRepo.SumByReferrer(ctx, accountID, today); err != nil {
		return nil, err
	}
	if st.WeeklyEarnings, err = s.referralRepo.SumByReferrer(ctx, accountID, today.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if st.MonthlyEarnings, err = s.referralRepo.SumByReferrer(ctx, accountID, today.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}
	if st.VerificationRewards, err = s.txRepo.SumByCategory(ctx, accountID, time.Time{}, domain.CategoryReferralVerification); err != nil {
		return nil, err
	}
	st.TotalReferralEarnings = st.TotalCommissions + st.VerificationRewards
	if st.RecentCommissions, err = s.referralRepo.ListByReferrer(ctx, accountID, 10); err != nil {
		return nil, err
	}
	if st.TotalReferrals, st.VerifiedReferrals, err = s.accountRepo.CountReferrals(ctx, accountID); err != nil {
		return nil, err
	}
	return &st, nil
}

type LeaderboardEntry struct {
	Rank                  int           `json:"rank"`
	AccountID             string        `json:"account_id"`
	Username              string        `json:"username"`
	FirstName             string        `json:"first_name"`
	TotalReferrals        int64         `json:"total_referrals"`
	TotalReferralEarnings domain.Amount `json:"total_referral_earnings"`
	TotalEarned           domain.Amount `json:"total_earned"`
}

// Leaderboard ranks referrers by what their referrals have paid them.
func (s *ReferralService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.txRepo.TopByCategories(ctx, limit, domain.ReferralCategories...)
	if err != nil {
		return nil, err
	}
	board := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		a, err := s.accountRepo.GetByID(ctx, row.AccountID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		total, _, err := s.accountRepo.CountReferrals(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		board = append(board, LeaderboardEntry{
			Rank:                  len(board) + 1,
			AccountID:             a.ID,
			Username:              a.Username,
			FirstName:             a.FirstName,
			TotalReferrals:        total,
			TotalReferralEarnings: row.Total,
			TotalEarned:           a.TotalEarned,
		})
	}
	return board, nil
}

type ReferrerSummary struct {
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	TotalReferrals int64  `json:"total_referrals"`
}

// ValidateCode resolves a referral code to its owner, or ErrAccountNotFound.
func (s *ReferralService) ValidateCode(ctx context.Context, code string) (*ReferrerSummary, error) {
	a, err := s.accountRepo.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	total, _, err := s.accountRepo.CountReferrals(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &ReferrerSummary{Username: a.Username, FirstName: a.FirstName, TotalReferrals: total}, nil
}
