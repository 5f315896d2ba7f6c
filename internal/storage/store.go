package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

type (
	// DeletedRecord is an audit snapshot written when a live row is removed.
	// RecordData holds the full row as JSON.
	DeletedRecord struct {
		ID             string
		TableName      string
		RecordID       string
		RecordData     string
		DeletionReason string
		DeletedBy      string
		DeletedAt      time.Time
	}

	// Setting is a string key/value pair with an optional description.
	Setting struct {
		Key         string
		Value       string
		Description string
		UpdatedAt   time.Time
	}

	// SMSTemplate is a reusable message body with {name} and {balance}
	// placeholders, scoped to a customer or supplier audience.
	SMSTemplate struct {
		ID        string
		Name      string
		Audience  core.AccountKind
		Body      string
		CreatedAt time.Time
	}

	// Notification is one outbound SMS job. It is recorded before being
	// enqueued so the worker sweep can re-deliver jobs whose queue message
	// was lost.
	Notification struct {
		ID        string
		AccountID string
		Phone     string
		Message   string
		Status    string // pending | sent | failed
		Attempts  int
		LastError string
		CreatedAt time.Time
		SentAt    time.Time
	}

	// DailySummary aggregates one calendar day across all accounts.
	DailySummary struct {
		Date          time.Time
		TotalPurchase decimal.Decimal
		TotalSale     decimal.Decimal
		TotalCredit   decimal.Decimal
		TotalDebit    decimal.Decimal
		Net           decimal.Decimal
	}
)

// Notification statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// RecordStore is the port the services work against. The SQLite repository
// is the production implementation; the memory store backs tests and the
// memory data backend.
type RecordStore interface {
	// Accounts
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context, kind core.AccountKind) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	// DeleteAccountWithAudit snapshots the account into deleted_records and
	// removes the live row in a single database transaction.
	DeleteAccountWithAudit(ctx context.Context, id, reason, deletedBy string) error

	// Entries. PostEntry inserts the entry and adjusts the owning account's
	// cached balance atomically. ListEntriesForMonth returns entries created
	// within [monthStart, monthEnd] sorted ascending by creation time, as
	// the aggregator requires.
	PostEntry(ctx context.Context, accountID string, e core.Entry) (core.Entry, error)
	ListEntriesForMonth(ctx context.Context, accountID string, monthStart, monthEnd time.Time) ([]core.Entry, error)
	// DeleteEntryWithAudit snapshots the entry, reverses its balance
	// contribution and removes the live row, all in one transaction.
	DeleteEntryWithAudit(ctx context.Context, entryID, reason, deletedBy string) error

	// Audit trail
	ListDeletedRecords(ctx context.Context, limit int) ([]DeletedRecord, error)

	// Settings
	GetSetting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, s Setting) error
	ListSettings(ctx context.Context) ([]Setting, error)

	// SMS templates
	ListTemplates(ctx context.Context, audience core.AccountKind) ([]SMSTemplate, error)
	SaveTemplate(ctx context.Context, t SMSTemplate) (SMSTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error

	// Notifications
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	GetNotification(ctx context.Context, id string) (Notification, error)
	MarkNotificationSent(ctx context.Context, id string) error
	MarkNotificationFailed(ctx context.Context, id string, reason string) error
	ListPendingNotifications(ctx context.Context, limit int) ([]Notification, error)

	// Reporting
	DailyReport(ctx context.Context, day time.Time) (DailySummary, error)

	Close() error
}
