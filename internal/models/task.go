package models

import (
	"time"

	"trxearn/internal/domain"

	"gorm.io/gorm"
)

type Task struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	Description        string         `gorm:"size:1024" json:"description"`
	Type               string         `gorm:"size:32;not null" json:"type"`
	URL                string         `gorm:"size:512" json:"url"`
	Reward             domain.Amount  `gorm:"not null" json:"reward"`
	IsActive           bool           `gorm:"not null;index" json:"is_active"`
	RequiredAction     string         `gorm:"size:32" json:"required_action"`
	VerificationMethod string         `gorm:"size:32" json:"verification_method"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// TaskCompletion is one member of an account's completed-task set.
type TaskCompletion struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	AccountID string        `gorm:"size:64;not null;uniqueIndex:idx_task_completion" json:"account_id"`
	TaskID    uint          `gorm:"not null;uniqueIndex:idx_task_completion;index" json:"task_id"`
	Reward    domain.Amount `gorm:"not null" json:"reward"`
	CreatedAt time.Time     `json:"created_at"`
}

func (TaskCompletion) TableName() string { return "task_completions" }
