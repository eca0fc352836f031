package service

import (
	"regexp"
	"testing"

	"trxearn/internal/domain"
	"trxearn/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referralCodePattern = regexp.MustCompile(`^[0-9A-F]{16}$`)

func TestRegister_AssignsReferralCode(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "1001", "")
	b := env.register(t, "1002", "")

	assert.Regexp(t, referralCodePattern, a.ReferralCode)
	assert.NotEqual(t, a.ReferralCode, b.ReferralCode)
	assert.Nil(t, a.ReferredBy)
	assert.Zero(t, a.Balance)
	assert.False(t, a.IsVerifiedReferral)
}

func TestRegister_Referral(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.register(t, "1001", "")

	referred := env.register(t, "2002", referrer.ReferralCode)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, "1001", *referred.ReferredBy)

	unknown := env.register(t, "3003", "DEADBEEFDEADBEEF")
	assert.Nil(t, unknown.ReferredBy)

	_, err := env.accounts.Register(env.ctx, "1001", ProfileInput{}, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestEnsureAccount(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.register(t, "1001", "")

	a, created, err := env.accounts.EnsureAccount(env.ctx, "2002", ProfileInput{Username: "bob"}, referrer.ReferralCode)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "bob", a.Username)

	// A second login never rewrites the referrer.
	other := env.register(t, "3003", "")
	again, created, err := env.accounts.EnsureAccount(env.ctx, "2002", ProfileInput{Username: "bob"}, other.ReferralCode)
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, again.ReferredBy)
	assert.Equal(t, "1001", *again.ReferredBy)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.register(t, "1001", "")
	env.register(t, "2002", referrer.ReferralCode)

	p, err := env.accounts.Profile(env.ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Referrals)
	assert.True(t, p.CanWatchAd)
	assert.Equal(t, "https://t.me/trxearnbot?start="+referrer.ReferralCode, p.ReferralLink)
	assert.Empty(t, p.CompletedTaskIDs)

	_, err = env.ledger.WatchAd(env.ctx, "1001")
	require.NoError(t, err)
	p, err = env.accounts.Profile(env.ctx, "1001")
	require.NoError(t, err)
	assert.False(t, p.CanWatchAd)

	_, err = env.accounts.Profile(env.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSetWalletAddress(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1001", "")

	_, err := env.accounts.SetWalletAddress(env.ctx, "1001", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	require.ErrorIs(t, err, domain.ErrInvalidAddress)

	a, err := env.accounts.SetWalletAddress(env.ctx, "1001", " "+testAddress+" ")
	require.NoError(t, err)
	assert.Equal(t, testAddress, a.WalletAddress)
	assert.Equal(t, testAddress, env.account(t, "1001").WalletAddress)
}

func TestSetBlocked(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1001", "")

	a, err := env.accounts.SetBlocked(env.ctx, "1001", true, "multi-accounting", "admin:root")
	require.NoError(t, err)
	assert.True(t, a.IsBlocked)
	assert.Equal(t, "multi-accounting", a.BlockReason)
	require.NotNil(t, a.BlockedAt)

	a, err = env.accounts.SetBlocked(env.ctx, "1001", false, "appeal accepted", "admin:root")
	require.NoError(t, err)
	assert.False(t, a.IsBlocked)
	assert.Empty(t, a.BlockReason)
	assert.Nil(t, a.BlockedAt)

	actions, err := env.audit.ListAdminActions(env.ctx, "", "1001", 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)

	blocked := true
	list, total, err := env.accounts.List(env.ctx, repository.AccountFilter{Blocked: &blocked, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestListAccounts_Search(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "1001", "")
	env.register(t, "1002", "")
	env.register(t, "2003", "")

	list, total, err := env.accounts.List(env.ctx, repository.AccountFilter{Search: "user_100", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = env.accounts.List(env.ctx, repository.AccountFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 1)
}
