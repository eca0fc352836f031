package models

import (
	"time"

	"trxearn/internal/domain"
)

// Account is the per-user ledger record, keyed by the external (Telegram) user id.
// Amount columns hold micro-TRX.
type Account struct {
	ID             string        `gorm:"primaryKey;size:64" json:"id"`
	Username       string        `gorm:"size:64;index" json:"username"`
	FirstName      string        `gorm:"size:128" json:"first_name"`
	LastName       string        `gorm:"size:128" json:"last_name"`
	WalletAddress  string        `gorm:"size:34" json:"wallet_address"`
	Balance        domain.Amount `gorm:"not null;default:0" json:"balance"`
	TotalEarned    domain.Amount `gorm:"not null;default:0;index" json:"total_earned"`
	TotalWithdrawn domain.Amount `gorm:"not null;default:0" json:"total_withdrawn"`
	AdsWatched     int           `gorm:"not null;default:0" json:"ads_watched"`
	LastAdWatchAt  *time.Time    `json:"last_ad_watch_at"`
	ReferralCode   string        `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	// ReferredBy is a lookup key into accounts, never an owning relation.
	ReferredBy         *string    `gorm:"size:64;index" json:"referred_by"`
	IsVerifiedReferral bool       `gorm:"not null;default:false;index" json:"is_verified_referral"`
	VerifiedAt         *time.Time `json:"verified_at"`
	IsBlocked          bool       `gorm:"not null;default:false;index" json:"is_blocked"`
	BlockReason        string     `gorm:"size:255" json:"block_reason,omitempty"`
	BlockedAt          *time.Time `json:"blocked_at,omitempty"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Referrer returns the referrer id, or "" when the account was not referred.
func (a *Account) Referrer() string {
	if a.ReferredBy == nil {
		return ""
	}
	return *a.ReferredBy
}

// CooldownRemaining returns how long until the next ad may be watched.
func (a *Account) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	if a.LastAdWatchAt == nil {
		return 0
	}
	remaining := cooldown - now.Sub(*a.LastAdWatchAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
