package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trxearn/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Rewards   RewardsConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RequestTimeout bounds every API request context, including its database calls.
	RequestTimeout time.Duration
}

func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig verifies tokens minted by the Telegram login gateway and signs admin tokens.
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type AdminConfig struct {
	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string
}

// RewardsConfig holds every reward and withdrawal rule. It is passed to the
// ledger, referral and withdrawal services at construction.
type RewardsConfig struct {
	AdReward              domain.Amount
	AdCooldown            time.Duration
	ReferralReward        domain.Amount
	VerificationThreshold int
	MinimumWithdrawal     domain.Amount
	CommissionRate        decimal.Decimal
}

type TelegramConfig struct {
	BotUsername string
}

// ReferralLink returns the bot deep link that carries a referral code.
func (t TelegramConfig) ReferralLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", t.BotUsername, code)
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RedisConfig enables the shared rate limiter when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig enables the ledger event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// DefaultRewards mirrors the production defaults.
func DefaultRewards() RewardsConfig {
	return RewardsConfig{
		AdReward:              domain.MustAmount("0.005"),
		AdCooldown:            15 * time.Second,
		ReferralReward:        domain.MustAmount("0.05"),
		VerificationThreshold: 5,
		MinimumWithdrawal:     domain.MustAmount("3.5"),
		CommissionRate:        decimal.RequireFromString("0.10"),
	}
}

// Load reads configuration from the environment, loading a .env file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	defaults := DefaultRewards()
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3001"),
			Env:            getEnv("APP_ENV", "development"),
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			RequestTimeout: p.duration("REQUEST_TIMEOUT", 8*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "trxearn:trxearn@tcp(localhost:3306)/trxearn?charset=utf8mb4&parseTime=True&loc=UTC&timeout=5s&readTimeout=10s&writeTimeout=10s"),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: p.duration("JWT_EXPIRY", 24*time.Hour),
			Issuer:       getEnv("JWT_ISSUER", "trxearn"),
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Rewards: RewardsConfig{
			AdReward:              p.amount("AD_REWARD", defaults.AdReward),
			AdCooldown:            time.Duration(p.int("AD_COOLDOWN_SECONDS", int(defaults.AdCooldown/time.Second))) * time.Second,
			ReferralReward:        p.amount("REFERRAL_REWARD", defaults.ReferralReward),
			VerificationThreshold: p.int("REFERRAL_VERIFICATION_ADS", defaults.VerificationThreshold),
			MinimumWithdrawal:     p.amount("MINIMUM_WITHDRAWAL", defaults.MinimumWithdrawal),
			CommissionRate:        p.decimal("WITHDRAWAL_COMMISSION", defaults.CommissionRate),
		},
		Telegram: TelegramConfig{
			BotUsername: getEnv("BOT_USERNAME", "trxearnbot"),
		},
		RateLimit: RateLimitConfig{
			Requests: p.int("RATE_LIMIT_REQUESTS", 100),
			Window:   p.duration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "trxearn.ledger"),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Rewards.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects reward rules the ledger cannot honour.
func (r RewardsConfig) Validate() error {
	var errs []error
	if !r.AdReward.IsPositive() {
		errs = append(errs, errors.New("AD_REWARD must be positive"))
	}
	if !r.ReferralReward.IsPositive() {
		errs = append(errs, errors.New("REFERRAL_REWARD must be positive"))
	}
	if !r.MinimumWithdrawal.IsPositive() {
		errs = append(errs, errors.New("MINIMUM_WITHDRAWAL must be positive"))
	}
	if r.AdCooldown < 0 {
		errs = append(errs, errors.New("AD_COOLDOWN_SECONDS must not be negative"))
	}
	if r.VerificationThreshold < 1 {
		errs = append(errs, errors.New("REFERRAL_VERIFICATION_ADS must be at least 1"))
	}
	if r.CommissionRate.IsNegative() || r.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("WITHDRAWAL_COMMISSION must be in [0, 1)"))
	}
	return errors.Join(errs...)
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects every malformed variable so startup reports them together.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) amount(key string, fallback domain.Amount) domain.Amount {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	a, err := domain.ParseAmount(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return a
}

func (p *parser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
