package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"milkbook/internal/core"
)

// SQLiteRepository is the production RecordStore backed by a local SQLite
// database. Cached account balances are maintained here: posting or
// deleting an entry adjusts the owning account inside the same SQL
// transaction as the row change.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time. A single connection makes
	// concurrent posts queue in the pool instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount inserts a new account with a zero balance.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Balance = decimal.Zero

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, code, kind, name, phone, address, milk_rate, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Code, string(a.Kind), a.Name, a.Phone, a.Address,
		a.MilkRate.String(), a.Balance.String(), a.CreatedAt, a.CreatedAt)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"account_kind", string(a.Kind),
		"code", a.Code)

	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, kind, name, phone, address, milk_rate, balance, created_at
		FROM accounts WHERE id = ?`, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, kind core.AccountKind) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, kind, name, phone, address, milk_rate, balance, created_at
		FROM accounts WHERE kind = ? ORDER BY name`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, phone = ?, address = ?, milk_rate = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, a.Phone, a.Address, a.MilkRate.String(), time.Now().UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteAccountWithAudit writes the full account snapshot and the deletion
// reason to deleted_records and removes the live row. Both steps run inside
// one transaction so a crash can neither lose the delete nor duplicate the
// audit entry.
func (r *SQLiteRepository) DeleteAccountWithAudit(ctx context.Context, id, reason, deletedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, code, kind, name, phone, address, milk_rate, balance, created_at
		FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	snapshot, err := json.Marshal(accountRow(a))
	if err != nil {
		return fmt.Errorf("marshal account snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deleted_records (id, table_name, record_id, record_data, deletion_reason, deleted_by, deleted_at)
		VALUES (?, 'accounts', ?, ?, ?, ?, ?)`,
		uuid.NewString(), id, string(snapshot), reason, deletedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete account row: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete account tx: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted with audit record",
		"account_id", id,
		"account_kind", string(a.Kind))

	return nil
}

// PostEntry inserts the entry and applies its signed delta to the owning
// account's cached balance in one transaction. The balance is read inside
// the transaction so concurrent posts never compute from a stale value.
func (r *SQLiteRepository) PostEntry(ctx context.Context, accountID string, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Entry{}, fmt.Errorf("begin post entry tx: %w", err)
	}
	defer tx.Rollback()

	var kindText, balanceText string
	err = tx.QueryRowContext(ctx, `
		SELECT kind, balance FROM accounts WHERE id = ?`, accountID).
		Scan(&kindText, &balanceText)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get account: %w", err)
	}
	balance, err := decimal.NewFromString(balanceText)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse balance %q: %w", balanceText, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, type, quantity, rate, amount, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, accountID, string(e.Kind), e.Quantity.String(), e.Rate.String(),
		e.Amount.String(), e.Note, e.CreatedAt); err != nil {
		return core.Entry{}, fmt.Errorf("insert transaction: %w", err)
	}

	newBalance := balance.Add(e.BalanceDelta(core.AccountKind(kindText)))
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		newBalance.String(), time.Now().UTC(), accountID); err != nil {
		return core.Entry{}, fmt.Errorf("update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Entry{}, fmt.Errorf("commit post entry tx: %w", err)
	}

	slog.InfoContext(ctx, "Transaction posted",
		"entry_id", e.ID,
		"account_id", accountID,
		"entry_kind", string(e.Kind),
		"amount", e.Amount.String())

	return e, nil
}

// ListEntriesForMonth returns the account's entries created within the
// inclusive window, sorted ascending by creation time. The aggregator
// relies on this ordering and does not re-sort.
func (r *SQLiteRepository) ListEntriesForMonth(ctx context.Context, accountID string, monthStart, monthEnd time.Time) ([]core.Entry, error) {
	// The end bound is inclusive of the whole last day.
	upper := monthEnd.AddDate(0, 0, 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, quantity, rate, amount, notes, created_at
		FROM transactions
		WHERE account_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC`,
		accountID, monthStart, upper)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var (
			e                   core.Entry
			kind, qty, rate, amt string
		)
		if err := rows.Scan(&e.ID, &kind, &qty, &rate, &amt, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = core.ParseEntryKind(kind)
		if e.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", qty, err)
		}
		if e.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("parse rate %q: %w", rate, err)
		}
		if e.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// DeleteEntryWithAudit snapshots the transaction row into deleted_records,
// reverses its contribution to the account's cached balance and removes the
// live row, all in one transaction. The row and balance are read inside the
// transaction so a concurrent post cannot interleave a stale balance.
func (r *SQLiteRepository) DeleteEntryWithAudit(ctx context.Context, entryID, reason, deletedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete entry tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT t.id, t.account_id, t.type, t.quantity, t.rate, t.amount, t.notes, t.created_at, a.kind, a.balance
		FROM transactions t JOIN accounts a ON a.id = t.account_id
		WHERE t.id = ?`, entryID)

	var (
		e                        core.Entry
		accountID                string
		kind, qty, rate, amt     string
		accountKind, balanceText string
	)
	err = row.Scan(&e.ID, &accountID, &kind, &qty, &rate, &amt, &e.Note, &e.CreatedAt, &accountKind, &balanceText)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	e.Kind = core.ParseEntryKind(kind)
	if e.Quantity, err = decimal.NewFromString(qty); err != nil {
		return fmt.Errorf("parse quantity %q: %w", qty, err)
	}
	if e.Rate, err = decimal.NewFromString(rate); err != nil {
		return fmt.Errorf("parse rate %q: %w", rate, err)
	}
	if e.Amount, err = decimal.NewFromString(amt); err != nil {
		return fmt.Errorf("parse amount %q: %w", amt, err)
	}
	balance, err := decimal.NewFromString(balanceText)
	if err != nil {
		return fmt.Errorf("parse balance %q: %w", balanceText, err)
	}

	snapshot, err := json.Marshal(entryRow(accountID, e))
	if err != nil {
		return fmt.Errorf("marshal transaction snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deleted_records (id, table_name, record_id, record_data, deletion_reason, deleted_by, deleted_at)
		VALUES (?, 'transactions', ?, ?, ?, ?, ?)`,
		uuid.NewString(), entryID, string(snapshot), reason, deletedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, entryID); err != nil {
		return fmt.Errorf("delete transaction row: %w", err)
	}

	reversed := balance.Sub(e.BalanceDelta(core.AccountKind(accountKind)))
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		reversed.String(), time.Now().UTC(), accountID); err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete entry tx: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted with audit record",
		"entry_id", entryID,
		"account_id", accountID,
		"entry_kind", string(e.Kind))

	return nil
}

func (r *SQLiteRepository) ListDeletedRecords(ctx context.Context, limit int) ([]DeletedRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, table_name, record_id, record_data, deletion_reason, deleted_by, deleted_at
		FROM deleted_records ORDER BY deleted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deleted records: %w", err)
	}
	defer rows.Close()

	var records []DeletedRecord
	for rows.Next() {
		var d DeletedRecord
		if err := rows.Scan(&d.ID, &d.TableName, &d.RecordID, &d.RecordData,
			&d.DeletionReason, &d.DeletedBy, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan deleted record: %w", err)
		}
		records = append(records, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deleted records: %w", err)
	}
	return records, nil
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := r.db.QueryRowContext(ctx, `
		SELECT key, value, description, updated_at FROM settings WHERE key = ?`, key).
		Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Setting{}, fmt.Errorf("get setting: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) PutSetting(ctx context.Context, s Setting) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value,
			description = excluded.description, updated_at = excluded.updated_at`,
		s.Key, s.Value, s.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value, description, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, audience core.AccountKind) ([]SMSTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, audience, body, created_at
		FROM sms_templates WHERE audience = ? ORDER BY name`, string(audience))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []SMSTemplate
	for rows.Next() {
		var (
			t        SMSTemplate
			audience string
		)
		if err := rows.Scan(&t.ID, &t.Name, &audience, &t.Body, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Audience = core.AccountKind(audience)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *SQLiteRepository) SaveTemplate(ctx context.Context, t SMSTemplate) (SMSTemplate, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sms_templates (id, name, audience, body, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET audience = excluded.audience, body = excluded.body`,
		t.ID, t.Name, string(t.Audience), t.Body, t.CreatedAt)
	if err != nil {
		return SMSTemplate{}, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sms_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = NotificationPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, account_id, phone, message, status, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.AccountID, n.Phone, n.Message, n.Status, n.Attempts, n.LastError, n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetNotification(ctx context.Context, id string) (Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, phone, message, status, attempts, last_error, created_at, sent_at
		FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkNotificationSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = ?, attempts = attempts + 1, sent_at = ? WHERE id = ?`,
		NotificationSent, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	slog.InfoContext(ctx, "Notification marked sent", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkNotificationFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?`,
		NotificationFailed, reason, id)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	slog.WarnContext(ctx, "Notification marked failed", "id", id, "reason", reason)
	return nil
}

func (r *SQLiteRepository) ListPendingNotifications(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, phone, message, status, attempts, last_error, created_at, sent_at
		FROM notifications WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		NotificationPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return notifications, nil
}

// DailyReport sums one calendar day of transactions across all accounts.
// Rows are fetched and summed in Go so the arithmetic stays on exact
// decimals; the per-account statement math lives in core.
func (r *SQLiteRepository) DailyReport(ctx context.Context, day time.Time) (DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, amount FROM transactions
		WHERE created_at >= ? AND created_at < ?`, start, end)
	if err != nil {
		return DailySummary{}, fmt.Errorf("daily report: %w", err)
	}
	defer rows.Close()

	summary := DailySummary{
		Date:          start,
		TotalPurchase: decimal.Zero,
		TotalSale:     decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalDebit:    decimal.Zero,
		Net:           decimal.Zero,
	}

	for rows.Next() {
		var kind, amt string
		if err := rows.Scan(&kind, &amt); err != nil {
			return DailySummary{}, fmt.Errorf("scan daily row: %w", err)
		}
		amount, err := decimal.NewFromString(amt)
		if err != nil {
			return DailySummary{}, fmt.Errorf("parse amount %q: %w", amt, err)
		}
		switch core.ParseEntryKind(kind) {
		case core.KindPurchase:
			summary.TotalPurchase = summary.TotalPurchase.Add(amount)
		case core.KindSale:
			summary.TotalSale = summary.TotalSale.Add(amount)
		case core.KindCredit:
			summary.TotalCredit = summary.TotalCredit.Add(amount)
		case core.KindDebit:
			summary.TotalDebit = summary.TotalDebit.Add(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return DailySummary{}, fmt.Errorf("daily report: %w", err)
	}

	summary.Net = summary.TotalSale.Sub(summary.TotalPurchase)
	return summary, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (core.Account, error) {
	var (
		a              core.Account
		kind, rate, bal string
	)
	if err := s.Scan(&a.ID, &a.Code, &kind, &a.Name, &a.Phone, &a.Address, &rate, &bal, &a.CreatedAt); err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)

	var err error
	if a.MilkRate, err = decimal.NewFromString(rate); err != nil {
		return core.Account{}, fmt.Errorf("parse milk rate %q: %w", rate, err)
	}
	if a.Balance, err = decimal.NewFromString(bal); err != nil {
		return core.Account{}, fmt.Errorf("parse balance %q: %w", bal, err)
	}
	return a, nil
}

func scanNotification(s scanner) (Notification, error) {
	var (
		n      Notification
		sentAt sql.NullTime
	)
	if err := s.Scan(&n.ID, &n.AccountID, &n.Phone, &n.Message, &n.Status,
		&n.Attempts, &n.LastError, &n.CreatedAt, &sentAt); err != nil {
		return Notification{}, err
	}
	if sentAt.Valid {
		n.SentAt = sentAt.Time
	}
	return n, nil
}

// accountRow shapes an account for the JSON audit snapshot, mirroring the
// column names of the live table.
func accountRow(a core.Account) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"code":       a.Code,
		"kind":       string(a.Kind),
		"name":       a.Name,
		"phone":      a.Phone,
		"address":    a.Address,
		"milk_rate":  a.MilkRate.String(),
		"balance":    a.Balance.String(),
		"created_at": a.CreatedAt,
	}
}

func entryRow(accountID string, e core.Entry) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"account_id": accountID,
		"type":       string(e.Kind),
		"quantity":   e.Quantity.String(),
		"rate":       e.Rate.String(),
		"amount":     e.Amount.String(),
		"notes":      e.Note,
		"created_at": e.CreatedAt,
	}
}
