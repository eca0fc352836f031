package models

import (
	"time"

	"trxearn/internal/domain"
)

// Transaction is an append-only ledger row. Amount is signed: positive = credit, negative = debit.
type Transaction struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	AccountID    string        `gorm:"size:64;not null;index:idx_tx_account_category" json:"account_id"`
	Amount       domain.Amount `gorm:"not null" json:"amount"`
	Category     string        `gorm:"size:32;not null;index:idx_tx_account_category" json:"category"`
	Reference    string        `gorm:"size:128;index" json:"reference"` // task id, withdrawal reference, referred account id
	BalanceAfter domain.Amount `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time     `gorm:"index" json:"timestamp"`
}

func (Transaction) TableName() string { return "transactions" }
