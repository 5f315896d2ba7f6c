package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/core"
	"milkbook/internal/storage/memory"
)

func newCustomer(t *testing.T, svc *LedgerService) core.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), core.Account{
		Code:     "CUST001",
		Kind:     core.AccountCustomer,
		Name:     "Ramesh Kumar",
		Phone:    "9876543210",
		MilkRate: decimal.NewFromInt(60),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func TestCreateAccount_Validation(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())

	tests := []struct {
		name    string
		account core.Account
	}{
		{name: "empty name", account: core.Account{Code: "CUST001", Kind: core.AccountCustomer}},
		{name: "empty code", account: core.Account{Name: "x", Kind: core.AccountCustomer}},
		{name: "bad kind", account: core.Account{Name: "x", Code: "C1", Kind: "vendor"}},
		{name: "negative rate", account: core.Account{
			Name: "x", Code: "C1", Kind: core.AccountCustomer,
			MilkRate: decimal.NewFromInt(-1),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), tt.account)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestPostEntry_DefaultsRateAndAmount(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	account := newCustomer(t, svc)

	// No rate, no amount: rate comes from the account, amount from qty*rate.
	e, err := svc.PostEntry(context.Background(), account.ID, core.Entry{
		Kind:     core.KindSale,
		Quantity: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("PostEntry: %v", err)
	}
	if !e.Rate.Equal(decimal.NewFromInt(60)) {
		t.Errorf("rate = %s, want account milk rate 60", e.Rate)
	}
	if !e.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("amount = %s, want 120", e.Amount)
	}
}

func TestPostEntry_DefaultRateFromSettings(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(store)

	a, err := svc.CreateAccount(context.Background(), core.Account{
		Code: "SUP001", Kind: core.AccountSupplier, Name: "Dairy Farm",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	// Account has no milk rate; the seeded default_purchase_rate is 50.
	e, err := svc.PostEntry(context.Background(), a.ID, core.Entry{
		Kind:     core.KindPurchase,
		Quantity: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("PostEntry: %v", err)
	}
	if !e.Rate.Equal(decimal.NewFromInt(50)) {
		t.Errorf("rate = %s, want settings default 50", e.Rate)
	}
	if !e.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("amount = %s, want 150", e.Amount)
	}
}

func TestPostEntry_RejectsInvalid(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	account := newCustomer(t, svc)

	tests := []struct {
		name  string
		entry core.Entry
	}{
		{name: "unknown kind", entry: core.Entry{Kind: "transfer", Amount: decimal.NewFromInt(10)}},
		{name: "zero amount no quantity", entry: core.Entry{Kind: core.KindCredit}},
		{name: "negative amount", entry: core.Entry{Kind: core.KindSale, Amount: decimal.NewFromInt(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PostEntry(context.Background(), account.ID, tt.entry)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestStatement_CustomerMonth(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	account := newCustomer(t, svc)
	ctx := context.Background()

	at := func(day int) time.Time {
		return time.Date(2025, time.March, day, 8, 0, 0, 0, time.UTC)
	}
	post := func(kind core.EntryKind, amount int64, day int) {
		t.Helper()
		if _, err := svc.PostEntry(ctx, account.ID, core.Entry{
			Kind:      kind,
			Amount:    decimal.NewFromInt(amount),
			CreatedAt: at(day),
		}); err != nil {
			t.Fatalf("PostEntry: %v", err)
		}
	}
	post(core.KindSale, 100, 3)
	post(core.KindCredit, 40, 12)
	post(core.KindSale, 20, 25)

	stmt, err := svc.Statement(ctx, account.ID, 2025, time.March)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if len(stmt.Periods) != 1 {
		t.Fatalf("customer statement has %d periods, want 1", len(stmt.Periods))
	}

	p := stmt.Periods[0]
	if p.Summary.Period.Label != "March 2025" {
		t.Errorf("label = %q, want %q", p.Summary.Period.Label, "March 2025")
	}
	if !p.Summary.TotalAmount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("total amount = %s, want 120", p.Summary.TotalAmount)
	}
	if !p.Summary.CreditAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("credit amount = %s, want 40", p.Summary.CreditAmount)
	}

	wantRunning := []int64{100, 60, 80}
	if len(p.Lines) != len(wantRunning) {
		t.Fatalf("got %d lines, want %d", len(p.Lines), len(wantRunning))
	}
	for i, want := range wantRunning {
		if p.Lines[i].Serial != i+1 {
			t.Errorf("line %d serial = %d, want %d", i, p.Lines[i].Serial, i+1)
		}
		if !p.Lines[i].RunningTotal.Equal(decimal.NewFromInt(want)) {
			t.Errorf("line %d running total = %s, want %d", i, p.Lines[i].RunningTotal, want)
		}
	}
}

func TestStatement_SupplierPeriods(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, core.Account{
		Code: "SUP001", Kind: core.AccountSupplier, Name: "Dairy Farm",
		MilkRate: decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	for _, day := range []int{5, 15, 28} {
		if _, err := svc.PostEntry(ctx, account.ID, core.Entry{
			Kind:      core.KindPurchase,
			Amount:    decimal.NewFromInt(int64(day)),
			CreatedAt: time.Date(2025, time.March, day, 6, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("PostEntry: %v", err)
		}
	}

	stmt, err := svc.Statement(ctx, account.ID, 2025, time.March)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if len(stmt.Periods) != 3 {
		t.Fatalf("supplier statement has %d periods, want 3", len(stmt.Periods))
	}

	wantLabels := []string{"1st - 10th", "11th - 20th", "21st - 31th"}
	for i, want := range wantLabels {
		if got := stmt.Periods[i].Summary.Period.Label; got != want {
			t.Errorf("period %d label = %q, want %q", i, got, want)
		}
		if len(stmt.Periods[i].Summary.Entries) != 1 {
			t.Errorf("period %d has %d entries, want 1", i, len(stmt.Periods[i].Summary.Entries))
		}
	}
}

func TestStatement_InvalidMonth(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	account := newCustomer(t, svc)

	_, err := svc.Statement(context.Background(), account.ID, 2025, time.Month(13))
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDeleteEntry_RequiresReason(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())

	err := svc.DeleteEntry(context.Background(), "some-id", "", "admin")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDeleteEntry_ReflectedInNextStatement(t *testing.T) {
	svc := NewLedgerService(memory.NewStore())
	account := newCustomer(t, svc)
	ctx := context.Background()

	e, err := svc.PostEntry(ctx, account.ID, core.Entry{
		Kind:      core.KindSale,
		Amount:    decimal.NewFromInt(100),
		CreatedAt: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("PostEntry: %v", err)
	}

	if err := svc.DeleteEntry(ctx, e.ID, "duplicate", "admin"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	stmt, err := svc.Statement(ctx, account.ID, 2025, time.March)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if got := len(stmt.Periods[0].Summary.Entries); got != 0 {
		t.Errorf("statement still lists %d entries after delete", got)
	}

	records, err := svc.ListDeletedRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListDeletedRecords: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d deleted records, want 1", len(records))
	}
}
