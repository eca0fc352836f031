package models

import (
	"time"

	"trxearn/internal/domain"
)

type Withdrawal struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Reference   string        `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	AccountID   string        `gorm:"size:64;not null;index:idx_withdrawal_account_status" json:"account_id"`
	Amount      domain.Amount `gorm:"not null" json:"amount"`
	Commission  domain.Amount `gorm:"not null" json:"commission"`
	NetAmount   domain.Amount `gorm:"not null" json:"net_amount"`
	ToAddress   string        `gorm:"size:34;not null" json:"to_address"`
	Status      string        `gorm:"size:20;not null;index:idx_withdrawal_account_status;index" json:"status"`
	TxHash      string        `gorm:"size:128" json:"tx_hash"`
	AdminNotes  string        `gorm:"size:512" json:"admin_notes"`
	ProcessedBy string        `gorm:"size:64" json:"processed_by,omitempty"`
	// ReferrerID is the commission payee captured at approval; nil when the platform keeps it.
	ReferrerID  *string    `gorm:"size:64;index" json:"referrer_id,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

func (w *Withdrawal) IsPending() bool { return w.Status == domain.WithdrawalPending }
