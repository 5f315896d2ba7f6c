package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindPurchase EntryKind = "purchase"
	KindSale     EntryKind = "sale"
	KindCredit   EntryKind = "credit"
	KindDebit    EntryKind = "debit"
	// KindUnknown tags entries whose stored type matches none of the
	// recognized kinds. They are listed in statements but never accumulated.
	KindUnknown EntryKind = "unknown"
)

const (
	AccountCustomer AccountKind = "customer"
	AccountSupplier AccountKind = "supplier"
)

type (
	// EntryKind discriminates the four transaction types.
	EntryKind string

	// AccountKind discriminates customer and supplier ledgers.
	AccountKind string

	// Account is a customer or supplier ledger owner. Balance is a cached
	// value maintained by the record store as entries are posted; the
	// aggregator only reads it.
	Account struct {
		ID        string
		Code      string // human-facing id like "CUST001" / "SUP001"
		Kind      AccountKind
		Name      string
		Phone     string
		Address   string
		MilkRate  decimal.Decimal // currency per liter
		Balance   decimal.Decimal
		CreatedAt time.Time
	}

	// Entry is an immutable financial fact belonging to one account.
	// Amount is authoritative; it is never recomputed from quantity and rate.
	Entry struct {
		ID        string
		Kind      EntryKind
		Quantity  decimal.Decimal // liters, zero unless purchase/sale
		Rate      decimal.Decimal // currency per liter, zero unless purchase/sale
		Amount    decimal.Decimal
		Note      string
		CreatedAt time.Time
	}
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCode     = errors.New("empty account code")
)

// ParseEntryKind maps a stored type string to a tagged kind. Unrecognized
// values map to KindUnknown rather than failing; statements must always
// render, even over unexpected rows.
func ParseEntryKind(s string) EntryKind {
	switch EntryKind(strings.TrimSpace(strings.ToLower(s))) {
	case KindPurchase:
		return KindPurchase
	case KindSale:
		return KindSale
	case KindCredit:
		return KindCredit
	case KindDebit:
		return KindDebit
	default:
		return KindUnknown
	}
}

// Recognized reports whether the kind is one of the four transaction types.
func (k EntryKind) Recognized() bool {
	switch k {
	case KindPurchase, KindSale, KindCredit, KindDebit:
		return true
	}
	return false
}

// Valid reports whether the account kind discriminator is customer or supplier.
func (k AccountKind) Valid() bool {
	return k == AccountCustomer || k == AccountSupplier
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(a.Code) == "" {
		return ErrEmptyCode
	}
	if !a.Kind.Valid() {
		return ErrValidation
	}
	if a.MilkRate.IsNegative() {
		return errors.New("milk rate cannot be negative")
	}
	return nil
}

// Validate checks an entry before it is posted. Amount must be positive;
// quantity and rate are only meaningful for purchase/sale and must not be
// negative. Stored rows are never re-validated on read.
func (e Entry) Validate() error {
	if !e.Kind.Recognized() {
		return errors.New("invalid transaction type")
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Quantity.IsNegative() || e.Rate.IsNegative() {
		return ErrInvalidAmount
	}
	if len(e.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

// BalanceDelta returns the signed contribution of an entry to its account's
// cached balance. Sales and purchases grow what the counterparty owes or is
// owed; credit and debit payments settle it. Unknown kinds contribute zero.
func (e Entry) BalanceDelta(kind AccountKind) decimal.Decimal {
	switch kind {
	case AccountCustomer:
		switch e.Kind {
		case KindSale:
			return e.Amount
		case KindCredit:
			return e.Amount.Neg()
		}
	case AccountSupplier:
		switch e.Kind {
		case KindPurchase:
			return e.Amount
		case KindDebit:
			return e.Amount.Neg()
		}
	}
	return decimal.Zero
}
