package service

import (
	"context"
	"strings"
	"time"

	"trxearn/config"
	"trxearn/internal/domain"
	"trxearn/internal/events"
	"trxearn/internal/metrics"
	"trxearn/internal/models"
	"trxearn/internal/repository"
	"trxearn/pkg/tron"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalService drives withdrawals through pending → {approved → completed, rejected, cancelled}.
// Locks are always taken account first, then withdrawal.
type WithdrawalService struct {
	db             *gorm.DB
	accountRepo    *repository.AccountRepository
	withdrawalRepo *repository.WithdrawalRepository
	adminRepo      *repository.AdminRepository
	referrals      *ReferralService
	rewards        config.RewardsConfig
	events         events.Publisher
	logger         *zap.Logger
	now            func() time.Time
}

func NewWithdrawalService(
	db *gorm.DB,
	referrals *ReferralService,
	rewards config.RewardsConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		accountRepo:    repository.NewAccountRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		adminRepo:      repository.NewAdminRepository(db),
		referrals:      referrals,
		rewards:        rewards,
		events:         publisher,
		logger:         logger.Named("withdrawal"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type RequestResult struct {
	Withdrawal *models.Withdrawal `json:"withdrawal"`
	NewBalance domain.Amount      `json:"new_balance"`
}

// Request reserves amount from the balance and opens a pending withdrawal.
// An empty toAddress falls back to the account's saved wallet.
func (s *WithdrawalService) Request(ctx context.Context, accountID string, amount domain.Amount, toAddress string) (*RequestResult, error) {
	var (
		w     *models.Withdrawal
		a     *models.Account
		entry *models.Transaction
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
		if !amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		if amount < s.rewards.MinimumWithdrawal {
			return domain.ErrBelowMinimum
		}
		if amount > a.Balance {
			return domain.ErrInsufficientBalance
		}
		address := strings.TrimSpace(toAddress)
		if address == "" {
			address = a.WalletAddress
		}
		if !tron.ValidAddress(address) {
			return domain.ErrInvalidAddress
		}
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)
		pending, err := withdrawalRepo.HasPending(ctx, accountID)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrPendingExists
		}

		ref := "wd-" + uuid.NewString()
		entry, err = applyDebit(ctx, tx, a, amount, domain.CategoryWithdrawal, ref, now)
		if err != nil {
			return err
		}
		commission := amount.MulRate(s.rewards.CommissionRate)
		w = &models.Withdrawal{
			Reference:  ref,
			AccountID:  accountID,
			Amount:     amount,
			Commission: commission,
			NetAmount:  amount - commission,
			ToAddress:  address,
			Status:     domain.WithdrawalPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return withdrawalRepo.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	metrics.WithdrawalTransitions.WithLabelValues(domain.WithdrawalPending).Inc()
	s.logger.Info("withdrawal requested",
		zap.Uint("withdrawal_id", w.ID),
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()))
	s.publish(ctx, events.TypeWithdrawalRequested, w)
	return &RequestResult{Withdrawal: w, NewBalance: a.Balance}, nil
}

type ApproveResult struct {
	Withdrawal *models.Withdrawal `json:"withdrawal"`
	Commission *PayoutOutcome     `json:"commission"`
}

// Approve settles a pending withdrawal and pays its commission to a verified referrer.
// The referrer is snapshotted in the same transaction as the status change.
func (s *WithdrawalService) Approve(ctx context.Context, id uint, adminID, txHash, notes string) (*ApproveResult, error) {
	w, err := s.transition(ctx, id, adminID, domain.AdminActionWithdrawalApprove, func(tx *gorm.DB, a *models.Account, w *models.Withdrawal, now time.Time) error {
		if !w.IsPending() {
			return domain.ErrNotPending
		}
		w.Status = domain.WithdrawalApproved
		w.TxHash = txHash
		w.AdminNotes = notes
		if a.ReferredBy != nil && a.IsVerifiedReferral {
			referrer := *a.ReferredBy
			w.ReferrerID = &referrer
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := s.referrals.DistributeCommission(ctx, w)
	s.publish(ctx, events.TypeWithdrawalApproved, w)
	return &ApproveResult{Withdrawal: w, Commission: out}, nil
}

type RefundResult struct {
	Withdrawal     *models.Withdrawal `json:"withdrawal"`
	RefundedAmount domain.Amount      `json:"refunded_amount"`
	NewBalance     domain.Amount      `json:"new_balance"`
}

// Reject closes a pending withdrawal and refunds the full requested amount.
func (s *WithdrawalService) Reject(ctx context.Context, id uint, adminID, notes string) (*RefundResult, error) {
	return s.refund(ctx, id, "", adminID, domain.WithdrawalRejected, notes)
}

// Cancel lets the owner withdraw a pending request; the amount is refunded like a rejection.
func (s *WithdrawalService) Cancel(ctx context.Context, accountID string, id uint) (*RefundResult, error) {
	return s.refund(ctx, id, accountID, "", domain.WithdrawalCancelled, "Cancelled by user")
}

func (s *WithdrawalService) refund(ctx context.Context, id uint, ownerID, adminID, status, notes string) (*RefundResult, error) {
	var (
		w     *models.Withdrawal
		a     *models.Account
		entry *models.Transaction
	)
	now := s.now()
	// The owner is read first so the account lock can be taken before the withdrawal lock.
	current, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && current.AccountID != ownerID {
		return nil, domain.ErrNotOwner
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		a, err = s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, current.AccountID)
		if err != nil {
			return err
		}
		if ownerID != "" && a.IsBlocked {
			return domain.ErrBlocked
		}
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)
		w, err = withdrawalRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !w.IsPending() {
			return domain.ErrNotPending
		}
		entry, err = applyCredit(ctx, tx, a, w.Amount, domain.CategoryWithdrawalRefund, w.Reference, now)
		if err != nil {
			return err
		}
		w.Status = status
		w.AdminNotes = notes
		w.ProcessedAt = &now
		w.ProcessedBy = adminID
		w.UpdatedAt = now
		if err := withdrawalRepo.Update(ctx, w); err != nil {
			return err
		}
		if adminID == "" {
			return nil
		}
		return s.adminRepo.WithTx(tx).CreateAction(ctx, &models.AdminAction{
			Action:        domain.AdminActionWithdrawalReject,
			TargetAccount: w.AccountID,
			Amount:        w.Amount,
			Reason:        notes,
			AdminID:       adminID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	recordApplied(entry)
	metrics.WithdrawalTransitions.WithLabelValues(status).Inc()
	s.logger.Info("withdrawal refunded",
		zap.Uint("withdrawal_id", w.ID),
		zap.String("account_id", w.AccountID),
		zap.String("status", status),
		zap.String("amount", w.Amount.String()))
	eventType := events.TypeWithdrawalRejected
	if status == domain.WithdrawalCancelled {
		eventType = events.TypeWithdrawalCancelled
	}
	s.publish(ctx, eventType, w)
	return &RefundResult{Withdrawal: w, RefundedAmount: w.Amount, NewBalance: a.Balance}, nil
}

// Complete attaches the on-chain settlement reference to an approved withdrawal.
// Balances and commission were settled at approval and are not touched.
func (s *WithdrawalService) Complete(ctx context.Context, id uint, adminID, txHash, notes string) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, id, adminID, domain.AdminActionWithdrawalComplete, func(tx *gorm.DB, a *models.Account, w *models.Withdrawal, now time.Time) error {
		if w.Status != domain.WithdrawalApproved {
			return domain.ErrNotApproved
		}
		w.Status = domain.WithdrawalCompleted
		if txHash != "" {
			w.TxHash = txHash
		}
		if notes != "" {
			w.AdminNotes = notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeWithdrawalCompleted, w)
	return w, nil
}

// transition runs an admin status change under the account and withdrawal locks and logs it.
func (s *WithdrawalService) transition(
	ctx context.Context,
	id uint,
	adminID, action string,
	apply func(tx *gorm.DB, a *models.Account, w *models.Withdrawal, now time.Time) error,
) (*models.Withdrawal, error) {
	current, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var w *models.Withdrawal
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.accountRepo.WithTx(tx).GetByIDForUpdate(ctx, current.AccountID)
		if err != nil {
			return err
		}
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)
		w, err = withdrawalRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(tx, a, w, now); err != nil {
			return err
		}
		w.ProcessedAt = &now
		w.ProcessedBy = adminID
		w.UpdatedAt = now
		if err := withdrawalRepo.Update(ctx, w); err != nil {
			return err
		}
		return s.adminRepo.WithTx(tx).CreateAction(ctx, &models.AdminAction{
			Action:        action,
			TargetAccount: w.AccountID,
			Amount:        w.Amount,
			Reason:        w.AdminNotes,
			AdminID:       adminID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.WithdrawalTransitions.WithLabelValues(w.Status).Inc()
	s.logger.Info("withdrawal transitioned",
		zap.Uint("withdrawal_id", w.ID),
		zap.String("account_id", w.AccountID),
		zap.String("status", w.Status),
		zap.String("admin_id", adminID))
	return w, nil
}

func (s *WithdrawalService) publish(ctx context.Context, eventType string, w *models.Withdrawal) {
	s.events.Publish(ctx, events.Event{
		Type:         eventType,
		AccountID:    w.AccountID,
		Amount:       w.Amount,
		Reference:    w.Reference,
		WithdrawalID: w.ID,
		Status:       w.Status,
		Timestamp:    w.UpdatedAt,
	})
}

// Get returns one of the account's withdrawals; other accounts' withdrawals are ErrNotOwner.
func (s *WithdrawalService) Get(ctx context.Context, accountID string, id uint) (*models.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.AccountID != accountID {
		return nil, domain.ErrNotOwner
	}
	return w, nil
}

type WithdrawalHistory struct {
	Withdrawals    []models.Withdrawal `json:"withdrawals"`
	TotalWithdrawn domain.Amount       `json:"total_withdrawn"`
	PendingAmount  domain.Amount       `json:"pending_amount"`
}

func (s *WithdrawalService) History(ctx context.Context, accountID string, limit int) (*WithdrawalHistory, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	list, err := s.withdrawalRepo.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	h := &WithdrawalHistory{Withdrawals: list, TotalWithdrawn: a.TotalWithdrawn}
	for _, w := range list {
		if w.IsPending() {
			h.PendingAmount += w.Amount
		}
	}
	return h, nil
}

// WithdrawalStats summarises withdrawals by status. Settled means approved or completed.
type WithdrawalStats struct {
	TotalRequests     int64            `json:"total_requests"`
	ByStatus          map[string]int64 `json:"by_status"`
	SettledAmount     domain.Amount    `json:"settled_amount"`
	SettledNetAmount  domain.Amount    `json:"settled_net_amount"`
	TotalCommissions  domain.Amount    `json:"total_commissions"`
	AverageAmount     domain.Amount    `json:"average_amount"`
	PendingAmount     domain.Amount    `json:"pending_amount"`
	MinimumWithdrawal domain.Amount    `json:"minimum_withdrawal"`
	CommissionRate    float64          `json:"commission_rate"`
	CurrentBalance    *domain.Amount   `json:"current_balance,omitempty"`
}

func (s *WithdrawalService) AccountStats(ctx context.Context, accountID string) (*WithdrawalStats, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	st, err := s.stats(ctx, accountID)
	if err != nil {
		return nil, err
	}
	st.CurrentBalance = &a.Balance
	return st, nil
}

// TotalStats summarises withdrawals across every account.
func (s *WithdrawalService) TotalStats(ctx context.Context) (*WithdrawalStats, error) {
	return s.stats(ctx, "")
}

func (s *WithdrawalService) stats(ctx context.Context, accountID string) (*WithdrawalStats, error) {
	rows, err := s.withdrawalRepo.TotalsByStatus(ctx, accountID)
	if err != nil {
		return nil, err
	}
	st := &WithdrawalStats{
		ByStatus:          make(map[string]int64, len(domain.WithdrawalStatuses)),
		MinimumWithdrawal: s.rewards.MinimumWithdrawal,
		CommissionRate:    s.rewards.CommissionRate.Shift(2).InexactFloat64(),
	}
	for _, status := range domain.WithdrawalStatuses {
		st.ByStatus[status] = 0
	}
	var settled int64
	for _, row := range rows {
		st.ByStatus[row.Status] = row.Count
		st.TotalRequests += row.Count
		if domain.IsSettled(row.Status) {
			settled += row.Count
			st.SettledAmount += row.Amount
			st.SettledNetAmount += row.NetAmount
			st.TotalCommissions += row.Commission
		}
		if row.Status == domain.WithdrawalPending {
			st.PendingAmount += row.Amount
		}
	}
	if settled > 0 {
		st.AverageAmount = st.SettledAmount / domain.Amount(settled)
	}
	return st, nil
}

func (s *WithdrawalService) ListPending(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	return s.withdrawalRepo.List(ctx, domain.WithdrawalPending, limit)
}

func (s *WithdrawalService) List(ctx context.Context, status string, limit int) ([]models.Withdrawal, error) {
	return s.withdrawalRepo.List(ctx, status, limit)
}
