package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"trxearn/config"
	"trxearn/internal/domain"
	"trxearn/internal/events"
	"trxearn/internal/models"
	"trxearn/internal/repository"
	"trxearn/pkg/tron"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AccountService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	taskRepo    *repository.TaskRepository
	adminRepo   *repository.AdminRepository
	rewards     config.RewardsConfig
	telegram    config.TelegramConfig
	events      events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewAccountService(
	db *gorm.DB,
	rewards config.RewardsConfig,
	telegram config.TelegramConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
		taskRepo:    repository.NewTaskRepository(db),
		adminRepo:   repository.NewAdminRepository(db),
		rewards:     rewards,
		telegram:    telegram,
		events:      publisher,
		logger:      logger.Named("account"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ProfileInput is the identity data supplied by the Telegram handshake.
type ProfileInput struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates the account on first authentication. An unknown referral code is ignored.
func (s *AccountService) Register(ctx context.Context, id string, profile ProfileInput, referralCode string) (*models.Account, error) {
	a := &models.Account{
		ID:        id,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
	if code := strings.TrimSpace(referralCode); code != "" {
		referrer, err := s.accountRepo.GetByReferralCode(ctx, code)
		switch {
		case err == nil && referrer.ID != id:
			a.ReferredBy = &referrer.ID
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	if err := s.accountRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("account_id", id), zap.String("referred_by", a.Referrer()))
	return a, nil
}

// EnsureAccount returns the account, registering it first when it does not exist yet.
func (s *AccountService) EnsureAccount(ctx context.Context, id string, profile ProfileInput, referralCode string) (*models.Account, bool, error) {
	a, err := s.accountRepo.GetByID(ctx, id)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	a, err = s.Register(ctx, id, profile, referralCode)
	if errors.Is(err, domain.ErrDuplicateAccount) {
		a, err = s.accountRepo.GetByID(ctx, id)
		return a, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Profile is the account as shown to its owner.
type Profile struct {
	*models.Account
	ReferralLink     string `json:"referral_link"`
	Referrals        int64  `json:"referrals"`
	CanWatchAd       bool   `json:"can_watch_ad"`
	CompletedTaskIDs []uint `json:"completed_task_ids"`
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

func (s *AccountService) Profile(ctx context.Context, id string) (*Profile, error) {
	a, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	referrals, _, err := s.accountRepo.CountReferrals(ctx, id)
	if err != nil {
		return nil, err
	}
	completed, err := s.taskRepo.CompletedTaskIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Account:          a,
		ReferralLink:     s.telegram.ReferralLink(a.ReferralCode),
		Referrals:        referrals,
		CanWatchAd:       !a.IsBlocked && a.CooldownRemaining(s.now(), s.rewards.AdCooldown) == 0,
		CompletedTaskIDs: completed,
	}, nil
}

// SetWalletAddress saves the default payout address after validating it.
func (s *AccountService) SetWalletAddress(ctx context.Context, id, address string) (*models.Account, error) {
	address = strings.TrimSpace(address)
	if !tron.ValidAddress(address) {
		return nil, domain.ErrInvalidAddress
	}
	var a *models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		repo := s.accountRepo.WithTx(tx)
		if a, err = repo.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		a.WalletAddress = address
		return repo.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SetBlocked blocks or unblocks an account and records the admin action.
func (s *AccountService) SetBlocked(ctx context.Context, id string, blocked bool, reason, adminID string) (*models.Account, error) {
	var a *models.Account
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		repo := s.accountRepo.WithTx(tx)
		if a, err = repo.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		action := domain.AdminActionUnblock
		a.IsBlocked = blocked
		if blocked {
			action = domain.AdminActionBlock
			a.BlockReason = reason
			a.BlockedAt = &now
		} else {
			a.BlockReason = ""
			a.BlockedAt = nil
		}
		if err := repo.Save(ctx, a); err != nil {
			return err
		}
		return s.adminRepo.WithTx(tx).CreateAction(ctx, &models.AdminAction{
			Action:        action,
			TargetAccount: id,
			Reason:        reason,
			AdminID:       adminID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account block changed", zap.String("account_id", id), zap.Bool("blocked", blocked), zap.String("admin_id", adminID))
	status := "unblocked"
	if blocked {
		status = "blocked"
	}
	s.events.Publish(ctx, events.Event{
		Type:      events.TypeAccountBlocked,
		AccountID: id,
		Reference: reason,
		Status:    status,
		Timestamp: now,
	})
	return a, nil
}

func (s *AccountService) List(ctx context.Context, f repository.AccountFilter) ([]models.Account, int64, error) {
	return s.accountRepo.List(ctx, f)
}
