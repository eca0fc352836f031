package config

import (
	"testing"
	"time"

	"trxearn/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultRewards().AdReward, cfg.Rewards.AdReward)
	assert.Equal(t, 15*time.Second, cfg.Rewards.AdCooldown)
	assert.Equal(t, 5, cfg.Rewards.VerificationThreshold)
	assert.True(t, cfg.Rewards.CommissionRate.Equal(decimal.RequireFromString("0.1")))
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 8*time.Second, cfg.Server.RequestTimeout)
	assert.Contains(t, cfg.Database.DSN, "readTimeout=")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AD_REWARD", "0.01")
	t.Setenv("AD_COOLDOWN_SECONDS", "30")
	t.Setenv("MINIMUM_WITHDRAWAL", "5")
	t.Setenv("WITHDRAWAL_COMMISSION", "0.2")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.MustAmount("0.01"), cfg.Rewards.AdReward)
	assert.Equal(t, 30*time.Second, cfg.Rewards.AdCooldown)
	assert.Equal(t, domain.MustAmount("5"), cfg.Rewards.MinimumWithdrawal)
	assert.True(t, cfg.Rewards.CommissionRate.Equal(decimal.RequireFromString("0.2")))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
}

func TestLoad_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv("AD_REWARD", "0.0000001")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AD_REWARD")
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestRewardsValidate(t *testing.T) {
	require.NoError(t, DefaultRewards().Validate())

	r := DefaultRewards()
	r.AdReward = 0
	r.VerificationThreshold = 0
	r.CommissionRate = decimal.NewFromInt(1)
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AD_REWARD")
	assert.Contains(t, err.Error(), "REFERRAL_VERIFICATION_ADS")
	assert.Contains(t, err.Error(), "WITHDRAWAL_COMMISSION")
}

func TestReferralLink(t *testing.T) {
	assert.Equal(t, "https://t.me/trxearnbot?start=ABC", TelegramConfig{BotUsername: "trxearnbot"}.ReferralLink("ABC"))
}
