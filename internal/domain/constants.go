package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Transaction categories. Every balance mutation is logged under exactly one.
const (
	CategoryAdView               = "ad_view"
	CategoryTaskCompletion       = "task_completion"
	CategoryReferralVerification = "referral_verification"
	CategoryReferralCommission   = "referral_commission"
	CategoryWithdrawal           = "withdrawal"
	CategoryWithdrawalRefund     = "withdrawal_refund"
	CategoryAdminCredit          = "admin_credit"
	CategoryAdminDebit           = "admin_debit"
)

// ReferralCategories are the transaction categories that count as referral earnings.
var ReferralCategories = []string{CategoryReferralVerification, CategoryReferralCommission}

const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalCompleted = "completed"
	WithdrawalRejected  = "rejected"
	WithdrawalCancelled = "cancelled"
)

// WithdrawalStatuses lists every status in lifecycle order.
var WithdrawalStatuses = []string{
	WithdrawalPending,
	WithdrawalApproved,
	WithdrawalCompleted,
	WithdrawalRejected,
	WithdrawalCancelled,
}

// IsSettled reports whether a withdrawal in this status has been paid out.
// Both approved and completed count: approval applies the commission,
// completion only attaches the on-chain reference.
func IsSettled(status string) bool {
	return status == WithdrawalApproved || status == WithdrawalCompleted
}

const (
	TaskTypeTelegramChannel = "telegram_channel"
	TaskTypeTelegramBot     = "telegram_bot"
	TaskTypeExternalLink    = "external_link"
)

const (
	TaskActionJoin  = "join"
	TaskActionStart = "start"
	TaskActionVisit = "visit"
)

const (
	VerificationManual    = "manual"
	VerificationAutomatic = "automatic"
)

const (
	AdminActionBalanceAdjustment  = "balance_adjustment"
	AdminActionBlock              = "block"
	AdminActionUnblock            = "unblock"
	AdminActionWithdrawalApprove  = "withdrawal_approve"
	AdminActionWithdrawalReject   = "withdrawal_reject"
	AdminActionWithdrawalComplete = "withdrawal_complete"
	AdminActionTaskVerify         = "task_verify"
)
