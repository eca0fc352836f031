package models

import (
	"time"

	"trxearn/internal/domain"
)

// AdminAction records an administrative change for the admin log.
type AdminAction struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Action        string        `gorm:"size:64;not null;index" json:"action"`
	TargetAccount string        `gorm:"size:64;index" json:"target_account"`
	Amount        domain.Amount `gorm:"not null;default:0" json:"amount"`
	Reason        string        `gorm:"size:512" json:"reason"`
	AdminID       string        `gorm:"size:64" json:"admin_id"`
	CreatedAt     time.Time     `gorm:"index" json:"timestamp"`
}

func (AdminAction) TableName() string { return "admin_actions" }
