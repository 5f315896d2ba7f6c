package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseEntryKind(t *testing.T) {
	tests := []struct {
		in   string
		want EntryKind
	}{
		{"purchase", KindPurchase},
		{"sale", KindSale},
		{"credit", KindCredit},
		{"debit", KindDebit},
		{" Sale ", KindSale},
		{"CREDIT", KindCredit},
		{"refund", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseEntryKind(tt.in); got != tt.want {
				t.Errorf("ParseEntryKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAccountKindValid(t *testing.T) {
	if !AccountCustomer.Valid() || !AccountSupplier.Valid() {
		t.Error("customer and supplier must be valid account kinds")
	}
	if AccountKind("vendor").Valid() {
		t.Error("vendor must not be a valid account kind")
	}
}

func TestAccountValidate(t *testing.T) {
	valid := Account{
		Code:     "CUST001",
		Kind:     AccountCustomer,
		Name:     "Ramesh Dairy",
		MilkRate: decimal.RequireFromString("60"),
	}

	tests := []struct {
		name    string
		mutate  func(a Account) Account
		wantErr bool
	}{
		{"valid account", func(a Account) Account { return a }, false},
		{"empty name", func(a Account) Account { a.Name = "  "; return a }, true},
		{"empty code", func(a Account) Account { a.Code = ""; return a }, true},
		{"bad kind", func(a Account) Account { a.Kind = "vendor"; return a }, true},
		{"negative rate", func(a Account) Account { a.MilkRate = decimal.RequireFromString("-1"); return a }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntryValidate(t *testing.T) {
	valid := Entry{
		Kind:     KindSale,
		Quantity: decimal.RequireFromString("10"),
		Rate:     decimal.RequireFromString("60"),
		Amount:   decimal.RequireFromString("600"),
	}

	tests := []struct {
		name    string
		mutate  func(e Entry) Entry
		wantErr bool
	}{
		{"valid entry", func(e Entry) Entry { return e }, false},
		{"zero amount", func(e Entry) Entry { e.Amount = decimal.Zero; return e }, true},
		{"negative amount", func(e Entry) Entry { e.Amount = decimal.RequireFromString("-5"); return e }, true},
		{"negative quantity", func(e Entry) Entry { e.Quantity = decimal.RequireFromString("-1"); return e }, true},
		{"unknown kind", func(e Entry) Entry { e.Kind = KindUnknown; return e }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntryBalanceDelta(t *testing.T) {
	amount := decimal.RequireFromString("150")

	tests := []struct {
		name string
		kind EntryKind
		acct AccountKind
		want string
	}{
		{"customer sale adds", KindSale, AccountCustomer, "150"},
		{"customer credit subtracts", KindCredit, AccountCustomer, "-150"},
		{"customer purchase ignored", KindPurchase, AccountCustomer, "0"},
		{"customer debit ignored", KindDebit, AccountCustomer, "0"},
		{"supplier purchase adds", KindPurchase, AccountSupplier, "150"},
		{"supplier debit subtracts", KindDebit, AccountSupplier, "-150"},
		{"supplier sale ignored", KindSale, AccountSupplier, "0"},
		{"unknown ignored", KindUnknown, AccountSupplier, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Kind: tt.kind, Amount: amount}
			got := e.BalanceDelta(tt.acct)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("BalanceDelta() = %s, want %s", got, tt.want)
			}
		})
	}
}
