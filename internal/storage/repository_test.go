package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testAccount(kind core.AccountKind) core.Account {
	code := "CUST001"
	if kind == core.AccountSupplier {
		code = "SUP001"
	}
	return core.Account{
		Code:     code,
		Kind:     kind,
		Name:     "Ramesh Kumar",
		Phone:    "9876543210",
		MilkRate: decimal.NewFromInt(55),
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated id")
	}
	if !created.Balance.IsZero() {
		t.Errorf("new account balance = %s, want 0", created.Balance)
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Name != "Ramesh Kumar" || got.Code != "CUST001" || got.Kind != core.AccountCustomer {
		t.Errorf("unexpected account: %+v", got)
	}
	if !got.MilkRate.Equal(decimal.NewFromInt(55)) {
		t.Errorf("milk rate = %s, want 55", got.MilkRate)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetAccount(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListAccounts_FiltersByKind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer)); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := repo.CreateAccount(ctx, testAccount(core.AccountSupplier)); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	customers, err := repo.ListAccounts(ctx, core.AccountCustomer)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(customers) != 1 || customers[0].Kind != core.AccountCustomer {
		t.Errorf("expected one customer, got %+v", customers)
	}
}

func TestPostEntry_UpdatesBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	post := func(kind core.EntryKind, amount int64) core.Entry {
		t.Helper()
		e, err := repo.PostEntry(ctx, account.ID, core.Entry{
			Kind:   kind,
			Amount: decimal.NewFromInt(amount),
		})
		if err != nil {
			t.Fatalf("PostEntry(%s, %d): %v", kind, amount, err)
		}
		return e
	}

	post(core.KindSale, 100)
	post(core.KindCredit, 40)

	got, err := repo.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("balance = %s, want 60", got.Balance)
	}
}

func TestPostEntry_ConcurrentPostsKeepBalanceExact(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	const posts = 20
	errs := make(chan error, posts)
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.PostEntry(ctx, account.ID, core.Entry{
				Kind:   core.KindSale,
				Amount: decimal.NewFromInt(10),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent PostEntry: %v", err)
		}
	}

	got, err := repo.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(10 * posts)) {
		t.Errorf("balance after %d concurrent sales = %s, want %d", posts, got.Balance, 10*posts)
	}
}

func TestPostEntry_AccountNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.PostEntry(context.Background(), "missing", core.Entry{
		Kind:   core.KindSale,
		Amount: decimal.NewFromInt(10),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListEntriesForMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, testAccount(core.AccountSupplier))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	march := func(day int) time.Time {
		return time.Date(2025, time.March, day, 10, 0, 0, 0, time.UTC)
	}
	for i, ts := range []time.Time{
		march(5), march(15), march(31),
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := repo.PostEntry(ctx, account.ID, core.Entry{
			Kind:      core.KindPurchase,
			Amount:    decimal.NewFromInt(int64(10 * (i + 1))),
			CreatedAt: ts,
		}); err != nil {
			t.Fatalf("PostEntry: %v", err)
		}
	}

	start, end := core.MonthBounds(2025, time.March)
	entries, err := repo.ListEntriesForMonth(ctx, account.ID, start, end)
	if err != nil {
		t.Fatalf("ListEntriesForMonth: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (April entry excluded)", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Errorf("entries not sorted ascending at index %d", i)
		}
	}
}

func TestDeleteEntryWithAudit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	entry, err := repo.PostEntry(ctx, account.ID, core.Entry{
		Kind:   core.KindSale,
		Amount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("PostEntry: %v", err)
	}

	if err := repo.DeleteEntryWithAudit(ctx, entry.ID, "posted twice", "admin"); err != nil {
		t.Fatalf("DeleteEntryWithAudit: %v", err)
	}

	// Balance contribution reversed.
	got, err := repo.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Errorf("balance after delete = %s, want 0", got.Balance)
	}

	// Row is gone from the live table.
	start, end := core.MonthBounds(time.Now().UTC().Year(), time.Now().UTC().Month())
	entries, err := repo.ListEntriesForMonth(ctx, account.ID, start, end)
	if err != nil {
		t.Fatalf("ListEntriesForMonth: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d live entries after delete, want 0", len(entries))
	}

	// Audit trail captured the snapshot and reason.
	records, err := repo.ListDeletedRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListDeletedRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d deleted records, want 1", len(records))
	}
	if records[0].TableName != "transactions" || records[0].RecordID != entry.ID {
		t.Errorf("unexpected audit record: %+v", records[0])
	}
	if records[0].DeletionReason != "posted twice" || records[0].DeletedBy != "admin" {
		t.Errorf("unexpected audit metadata: %+v", records[0])
	}
}

func TestDeleteAccountWithAudit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, testAccount(core.AccountSupplier))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := repo.PostEntry(ctx, account.ID, core.Entry{
		Kind:   core.KindPurchase,
		Amount: decimal.NewFromInt(50),
	}); err != nil {
		t.Fatalf("PostEntry: %v", err)
	}

	if err := repo.DeleteAccountWithAudit(ctx, account.ID, "moved away", "admin"); err != nil {
		t.Fatalf("DeleteAccountWithAudit: %v", err)
	}

	if _, err := repo.GetAccount(ctx, account.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccount after delete = %v, want ErrNotFound", err)
	}

	records, err := repo.ListDeletedRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListDeletedRecords: %v", err)
	}
	if len(records) != 1 || records[0].TableName != "accounts" {
		t.Errorf("unexpected audit records: %+v", records)
	}
}

func TestSettings_SeededAndUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.GetSetting(ctx, "default_sale_rate")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if s.Value != "60" {
		t.Errorf("default_sale_rate = %q, want 60", s.Value)
	}

	if err := repo.PutSetting(ctx, Setting{Key: "default_sale_rate", Value: "65"}); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	s, err = repo.GetSetting(ctx, "default_sale_rate")
	if err != nil {
		t.Fatalf("GetSetting after upsert: %v", err)
	}
	if s.Value != "65" {
		t.Errorf("default_sale_rate after upsert = %q, want 65", s.Value)
	}
}

func TestTemplates_SaveListDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tpl, err := repo.SaveTemplate(ctx, SMSTemplate{
		Name:     "monthly-balance",
		Audience: core.AccountCustomer,
		Body:     "Dear {name}, your balance is {balance}.",
	})
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	templates, err := repo.ListTemplates(ctx, core.AccountCustomer)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Name != "monthly-balance" {
		t.Errorf("unexpected templates: %+v", templates)
	}

	if err := repo.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if err := repo.DeleteTemplate(ctx, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.CreateNotification(ctx, Notification{
		Phone:   "919876543210",
		Message: "Dear Ramesh, your balance is 60.",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if n.Status != NotificationPending {
		t.Errorf("status = %q, want pending", n.Status)
	}

	pending, err := repo.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingNotifications: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}

	if err := repo.MarkNotificationSent(ctx, n.ID); err != nil {
		t.Fatalf("MarkNotificationSent: %v", err)
	}
	got, err := repo.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if got.Status != NotificationSent || got.Attempts != 1 || got.SentAt.IsZero() {
		t.Errorf("unexpected notification after send: %+v", got)
	}

	pending, err = repo.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingNotifications: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after send, want 0", len(pending))
	}
}

func TestMarkNotificationFailed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.CreateNotification(ctx, Notification{Phone: "91911", Message: "hi"})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if err := repo.MarkNotificationFailed(ctx, n.ID, "gateway timeout"); err != nil {
		t.Fatalf("MarkNotificationFailed: %v", err)
	}

	got, err := repo.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if got.Status != NotificationFailed || got.LastError != "gateway timeout" {
		t.Errorf("unexpected notification after failure: %+v", got)
	}
}

func TestDailyReport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	customer, err := repo.CreateAccount(ctx, testAccount(core.AccountCustomer))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	supplier, err := repo.CreateAccount(ctx, testAccount(core.AccountSupplier))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	day := time.Date(2025, time.March, 12, 9, 30, 0, 0, time.UTC)
	post := func(accountID string, kind core.EntryKind, amount int64, at time.Time) {
		t.Helper()
		if _, err := repo.PostEntry(ctx, accountID, core.Entry{
			Kind:      kind,
			Amount:    decimal.NewFromInt(amount),
			CreatedAt: at,
		}); err != nil {
			t.Fatalf("PostEntry: %v", err)
		}
	}
	post(customer.ID, core.KindSale, 120, day)
	post(customer.ID, core.KindCredit, 20, day)
	post(supplier.ID, core.KindPurchase, 80, day)
	post(supplier.ID, core.KindDebit, 30, day)
	post(customer.ID, core.KindSale, 999, day.AddDate(0, 0, 1))

	summary, err := repo.DailyReport(ctx, day)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if !summary.TotalSale.Equal(decimal.NewFromInt(120)) {
		t.Errorf("total sale = %s, want 120", summary.TotalSale)
	}
	if !summary.TotalPurchase.Equal(decimal.NewFromInt(80)) {
		t.Errorf("total purchase = %s, want 80", summary.TotalPurchase)
	}
	if !summary.TotalCredit.Equal(decimal.NewFromInt(20)) {
		t.Errorf("total credit = %s, want 20", summary.TotalCredit)
	}
	if !summary.TotalDebit.Equal(decimal.NewFromInt(30)) {
		t.Errorf("total debit = %s, want 30", summary.TotalDebit)
	}
	if !summary.Net.Equal(decimal.NewFromInt(40)) {
		t.Errorf("net = %s, want 40", summary.Net)
	}
}
