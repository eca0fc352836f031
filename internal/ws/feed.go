package ws

import (
	"context"

	"trxearn/internal/events"
)

// AdminFeed streams ledger events to connected admin dashboards.
type AdminFeed struct {
	*Hub
}

func NewAdminFeed() *AdminFeed {
	return &AdminFeed{Hub: NewHub()}
}

func (f *AdminFeed) Name() string { return "websocket" }

// Write broadcasts the event to every admin connection.
func (f *AdminFeed) Write(_ context.Context, e events.Event) error {
	return f.BroadcastAll(e)
}

// AccountFeed pushes each event to the sockets of the account it concerns:
// the withdrawal owner, or the referrer for referral payouts.
type AccountFeed struct {
	*Hub
}

func NewAccountFeed() *AccountFeed {
	return &AccountFeed{Hub: NewHub()}
}

func (f *AccountFeed) Name() string { return "account-websocket" }

func (f *AccountFeed) Write(_ context.Context, e events.Event) error {
	if e.AccountID == "" {
		return nil
	}
	return f.BroadcastToAccount(e.AccountID, e)
}
