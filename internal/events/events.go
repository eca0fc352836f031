package events

import (
	"context"
	"time"

	"trxearn/internal/domain"
	"trxearn/internal/metrics"

	"go.uber.org/zap"
)

const (
	TypeWithdrawalRequested = "withdrawal.requested"
	TypeWithdrawalApproved  = "withdrawal.approved"
	TypeWithdrawalRejected  = "withdrawal.rejected"
	TypeWithdrawalCancelled = "withdrawal.cancelled"
	TypeWithdrawalCompleted = "withdrawal.completed"
	TypeReferralVerified    = "referral.verified"
	TypeReferralCommission  = "referral.commission"
	TypeBalanceAdjusted     = "account.balance_adjusted"
	TypeAccountBlocked      = "account.blocked"
)

// Event is a ledger notification for the admin feed and downstream consumers.
type Event struct {
	Type         string        `json:"type"`
	AccountID    string        `json:"account_id"`
	Amount       domain.Amount `json:"amount,omitempty"`
	Reference    string        `json:"reference,omitempty"`
	WithdrawalID uint          `json:"withdrawal_id,omitempty"`
	Status       string        `json:"status,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Publisher is what services depend on. Publishing never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink is one delivery target behind a Bus.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Event) error
}

// Bus fans an event out to every sink, logging sink failures.
type Bus struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewBus(logger *zap.Logger, sinks ...Sink) *Bus {
	return &Bus{sinks: sinks, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	for _, s := range b.sinks {
		if err := s.Write(ctx, e); err != nil {
			metrics.EventsPublishFailed.WithLabelValues(s.Name()).Inc()
			b.logger.Warn("event publish failed",
				zap.String("sink", s.Name()),
				zap.String("type", e.Type),
				zap.String("account_id", e.AccountID),
				zap.Error(err))
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
