package service

import (
	"context"

	"trxearn/internal/domain"
	"trxearn/internal/models"
	"trxearn/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AuditService detects ledger drift and payouts that failed after their primary operation committed.
type AuditService struct {
	accountRepo    *repository.AccountRepository
	txRepo         *repository.TransactionRepository
	withdrawalRepo *repository.WithdrawalRepository
	referralRepo   *repository.ReferralRepository
	adminRepo      *repository.AdminRepository
	referrals      *ReferralService
	withdrawals    *WithdrawalService
	logger         *zap.Logger
}

func NewAuditService(db *gorm.DB, referrals *ReferralService, withdrawals *WithdrawalService, logger *zap.Logger) *AuditService {
	return &AuditService{
		accountRepo:    repository.NewAccountRepository(db),
		txRepo:         repository.NewTransactionRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		referralRepo:   repository.NewReferralRepository(db),
		adminRepo:      repository.NewAdminRepository(db),
		referrals:      referrals,
		withdrawals:    withdrawals,
		logger:         logger.Named("audit"),
	}
}

// ReconcileReport compares an account's counters with its ledger and lists unpaid referral payouts.
type ReconcileReport struct {
	AccountID                  string        `json:"account_id"`
	Balance                    domain.Amount `json:"balance"`
	TransactionSum             domain.Amount `json:"transaction_sum"`
	EarnedMinusWithdrawn       domain.Amount `json:"earned_minus_withdrawn"`
	BalanceMatches             bool          `json:"balance_matches"`
	MissingVerificationRewards []string      `json:"missing_verification_rewards"`
	MissingCommissions         []uint        `json:"missing_commissions"`
	Consistent                 bool          `json:"consistent"`
}

func (s *AuditService) Reconcile(ctx context.Context, accountID string) (*ReconcileReport, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sum, err := s.txRepo.Sum(ctx, accountID)
	if err != nil {
		return nil, err
	}
	r := &ReconcileReport{
		AccountID:                  accountID,
		Balance:                    a.Balance,
		TransactionSum:             sum,
		EarnedMinusWithdrawn:       a.TotalEarned - a.TotalWithdrawn,
		MissingVerificationRewards: []string{},
		MissingCommissions:         []uint{},
	}
	r.BalanceMatches = r.Balance == r.TransactionSum && r.TransactionSum == r.EarnedMinusWithdrawn

	verified, err := s.accountRepo.ListVerifiedReferralIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	paidRefs, err := s.txRepo.References(ctx, accountID, domain.CategoryReferralVerification)
	if err != nil {
		return nil, err
	}
	paid := make(map[string]struct{}, len(paidRefs))
	for _, ref := range paidRefs {
		paid[ref] = struct{}{}
	}
	for _, id := range verified {
		if _, ok := paid[id]; !ok {
			r.MissingVerificationRewards = append(r.MissingVerificationRewards, id)
		}
	}

	owed, err := s.withdrawalRepo.ListSettledByReferrer(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, w := range owed {
		if !w.Commission.IsPositive() {
			continue
		}
		exists, err := s.referralRepo.CommissionExists(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			r.MissingCommissions = append(r.MissingCommissions, w.ID)
		}
	}

	r.Consistent = r.BalanceMatches && len(r.MissingVerificationRewards) == 0 && len(r.MissingCommissions) == 0
	if !r.Consistent {
		s.logger.Warn("reconciliation mismatch",
			zap.String("account_id", accountID),
			zap.Bool("balance_matches", r.BalanceMatches),
			zap.Int("missing_verification_rewards", len(r.MissingVerificationRewards)),
			zap.Int("missing_commissions", len(r.MissingCommissions)))
	}
	return r, nil
}

// RetryPayouts re-runs the idempotent referral payouts that Reconcile reports missing.
func (s *AuditService) RetryPayouts(ctx context.Context, accountID string) ([]*PayoutOutcome, error) {
	report, err := s.Reconcile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	outcomes := make([]*PayoutOutcome, 0, len(report.MissingVerificationRewards)+len(report.MissingCommissions))
	for _, referredID := range report.MissingVerificationRewards {
		outcomes = append(outcomes, s.referrals.PayVerificationReward(ctx, accountID, referredID))
	}
	for _, id := range report.MissingCommissions {
		w, err := s.withdrawalRepo.GetByID(ctx, id)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, s.referrals.DistributeCommission(ctx, w))
	}
	return outcomes, nil
}

func (s *AuditService) ListAdminActions(ctx context.Context, action, target string, limit int) ([]models.AdminAction, error) {
	return s.adminRepo.ListActions(ctx, action, target, limit)
}

type Overview struct {
	Dashboard   *repository.DashboardStats   `json:"dashboard"`
	Withdrawals *WithdrawalStats             `json:"withdrawals"`
	Signups     []repository.TimeSeriesPoint `json:"signups"`
	Earnings    []repository.AmountPoint     `json:"earnings"`
	Requests    []repository.TimeSeriesPoint `json:"withdrawal_requests"`
}

// Overview gathers the admin dashboard figures for the last N days. The queries are independent
// and run concurrently.
func (s *AuditService) Overview(ctx context.Context, days int) (*Overview, error) {
	var o Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Dashboard, err = s.adminRepo.GetDashboardStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.Withdrawals, err = s.withdrawals.TotalStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.Signups, err = s.adminRepo.SignupsByDay(ctx, days)
		return err
	})
	g.Go(func() (err error) {
		o.Earnings, err = s.adminRepo.EarningsByDay(ctx, days)
		return err
	})
	g.Go(func() (err error) {
		o.Requests, err = s.adminRepo.WithdrawalsByDay(ctx, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &o, nil
}
