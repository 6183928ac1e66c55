package model

import (
	"strings"

	"tweet-telegram-relay/internal/domain"
)

// MonitoredAccount is a configured username and, once resolved, the stable
// platform identifier behind it. An empty AccountID marks an account that
// failed resolution and is never polled.
type MonitoredAccount struct {
	Username  string
	AccountID string
}

func NewMonitoredAccount(username string) (MonitoredAccount, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return MonitoredAccount{}, domain.ErrInvalidArgument
	}
	return MonitoredAccount{Username: username}, nil
}

func (a MonitoredAccount) Resolved() bool { return a.AccountID != "" }

// TrackedAccount pairs an account with its in-memory cursor.
type TrackedAccount struct {
	Account MonitoredAccount
	Cursor  Cursor
}
