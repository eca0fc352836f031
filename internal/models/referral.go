package models

import (
	"time"

	"trxearn/internal/domain"
)

// ReferralCommission is the audit row for a commission redirected to a referrer
// when a referred account's withdrawal is approved. One row per withdrawal.
type ReferralCommission struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	ReferrerID   string        `gorm:"size:64;not null;index" json:"referrer_id"`
	ReferredID   string        `gorm:"size:64;not null;index" json:"referred_id"`
	WithdrawalID uint          `gorm:"uniqueIndex;not null" json:"withdrawal_id"`
	Amount       domain.Amount `gorm:"not null" json:"amount"`
	CreatedAt    time.Time     `gorm:"index" json:"timestamp"`
}

func (ReferralCommission) TableName() string { return "referral_commissions" }
