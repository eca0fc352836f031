package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"trxearn/config"
	"trxearn/internal/domain"
	"trxearn/internal/events"
	"trxearn/internal/models"
	"trxearn/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAddress = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	ctx         context.Context
	db          *gorm.DB
	clock       *fakeClock
	events      *recorder
	rewards     config.RewardsConfig
	accounts    *AccountService
	ledger      *LedgerService
	referrals   *ReferralService
	withdrawals *WithdrawalService
	tasks       *TaskService
	audit       *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	rewards := config.DefaultRewards()
	telegram := config.TelegramConfig{BotUsername: "trxearnbot"}
	logger := zap.NewNop()

	referrals := NewReferralService(db, rewards, telegram, rec, logger)
	referrals.now = clock.Now
	ledger := NewLedgerService(db, referrals, rewards, rec, logger)
	ledger.now = clock.Now
	withdrawals := NewWithdrawalService(db, referrals, rewards, rec, logger)
	withdrawals.now = clock.Now
	accounts := NewAccountService(db, rewards, telegram, rec, logger)
	accounts.now = clock.Now

	return &testEnv{
		ctx:         context.Background(),
		db:          db,
		clock:       clock,
		events:      rec,
		rewards:     rewards,
		accounts:    accounts,
		ledger:      ledger,
		referrals:   referrals,
		withdrawals: withdrawals,
		tasks:       NewTaskService(db, logger),
		audit:       NewAuditService(db, referrals, withdrawals, logger),
	}
}

func (e *testEnv) register(t *testing.T, id, referralCode string) *models.Account {
	t.Helper()
	a, err := e.accounts.Register(e.ctx, id, ProfileInput{Username: "user_" + id, FirstName: "User " + id}, referralCode)
	require.NoError(t, err)
	return a
}

func (e *testEnv) fund(t *testing.T, id string, amount string) {
	t.Helper()
	_, err := e.ledger.Credit(e.ctx, id, domain.MustAmount(amount), domain.CategoryAdminCredit, "test funding")
	require.NoError(t, err)
}

func (e *testEnv) account(t *testing.T, id string) *models.Account {
	t.Helper()
	a, err := e.accounts.Get(e.ctx, id)
	require.NoError(t, err)
	return a
}

// watchAds watches n ads, moving the clock past the cooldown between each.
func (e *testEnv) watchAds(t *testing.T, id string, n int) *AdWatchResult {
	t.Helper()
	var res *AdWatchResult
	for i := 0; i < n; i++ {
		var err error
		res, err = e.ledger.WatchAd(e.ctx, id)
		require.NoError(t, err)
		e.clock.Advance(e.rewards.AdCooldown)
	}
	return res
}

// verifyReferral registers referredID under referrer and watches enough ads to verify it.
func (e *testEnv) verifyReferral(t *testing.T, referrer *models.Account, referredID string) *models.Account {
	t.Helper()
	e.register(t, referredID, referrer.ReferralCode)
	e.watchAds(t, referredID, e.rewards.VerificationThreshold)
	a := e.account(t, referredID)
	require.True(t, a.IsVerifiedReferral)
	return a
}

// requireReconciled checks that the ledger and the account counters agree.
func (e *testEnv) requireReconciled(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		r, err := e.audit.Reconcile(e.ctx, id)
		require.NoError(t, err)
		require.True(t, r.BalanceMatches, "account %s: balance=%s sum=%s earned-withdrawn=%s",
			id, r.Balance, r.TransactionSum, r.EarnedMinusWithdrawn)
	}
}
