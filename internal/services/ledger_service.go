package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/core"
	"milkbook/internal/storage"
)

// Settings keys consulted when a posted entry omits its rate.
const (
	settingDefaultPurchaseRate = "default_purchase_rate"
	settingDefaultSaleRate     = "default_sale_rate"
)

type (
	// Statement is the full monthly view for one account: the account row,
	// per-period accumulations and per-entry running balances. It is derived
	// per request and never persisted.
	Statement struct {
		Account    core.Account
		Year       int
		Month      time.Month
		MonthStart time.Time
		MonthEnd   time.Time
		Periods    []PeriodStatement
	}

	// PeriodStatement pairs a period's accumulators with its ledger lines.
	// Running totals restart at zero for each period.
	PeriodStatement struct {
		Summary core.PeriodSummary
		Lines   []core.LedgerLine
	}
)

// LedgerService orchestrates account and transaction operations over the
// record store.
type LedgerService struct {
	store storage.RecordStore
}

func NewLedgerService(store storage.RecordStore) *LedgerService {
	return &LedgerService{store: store}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	return s.store.CreateAccount(ctx, a)
}

func (s *LedgerService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context, kind core.AccountKind) ([]core.Account, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", core.ErrValidation, kind)
	}
	return s.store.ListAccounts(ctx, kind)
}

func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) error {
	existing, err := s.store.GetAccount(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Code = existing.Code
	a.Kind = existing.Kind
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	return s.store.UpdateAccount(ctx, a)
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id, reason, deletedBy string) error {
	if reason == "" {
		return fmt.Errorf("%w: deletion reason is required", core.ErrValidation)
	}
	return s.store.DeleteAccountWithAudit(ctx, id, reason, deletedBy)
}

// PostEntry fills in a missing rate from the account's milk rate, falling
// back to the configured default, computes a missing amount as quantity
// times rate, validates and posts.
func (s *LedgerService) PostEntry(ctx context.Context, accountID string, e core.Entry) (core.Entry, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Entry{}, err
	}

	if (e.Kind == core.KindPurchase || e.Kind == core.KindSale) && e.Rate.IsZero() {
		e.Rate = s.defaultRate(ctx, account, e.Kind)
	}
	if e.Amount.IsZero() && e.Quantity.IsPositive() && e.Rate.IsPositive() {
		e.Amount = e.Quantity.Mul(e.Rate)
	}

	if err := e.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	return s.store.PostEntry(ctx, accountID, e)
}

func (s *LedgerService) defaultRate(ctx context.Context, account core.Account, kind core.EntryKind) decimal.Decimal {
	if account.MilkRate.IsPositive() {
		return account.MilkRate
	}

	key := settingDefaultSaleRate
	if kind == core.KindPurchase {
		key = settingDefaultPurchaseRate
	}
	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Default rate setting missing", "key", key, "error", err)
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(setting.Value)
	if err != nil {
		slog.WarnContext(ctx, "Default rate setting not numeric",
			"key", key, "value", setting.Value)
		return decimal.Zero
	}
	return rate
}

func (s *LedgerService) DeleteEntry(ctx context.Context, entryID, reason, deletedBy string) error {
	if reason == "" {
		return fmt.Errorf("%w: deletion reason is required", core.ErrValidation)
	}
	return s.store.DeleteEntryWithAudit(ctx, entryID, reason, deletedBy)
}

// Statement recomputes the monthly view from the stored entries on every
// call. Nothing derived is cached, so a posted or deleted entry is
// reflected by the next request.
func (s *LedgerService) Statement(ctx context.Context, accountID string, year int, month time.Month) (Statement, error) {
	if month < time.January || month > time.December {
		return Statement{}, fmt.Errorf("%w: month %d out of range", core.ErrValidation, month)
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Statement{}, err
	}

	monthStart, monthEnd := core.MonthBounds(year, month)
	entries, err := s.store.ListEntriesForMonth(ctx, accountID, monthStart, monthEnd)
	if err != nil {
		return Statement{}, err
	}

	summaries, err := core.ComputePeriodSummaries(account.Kind, entries, monthStart, monthEnd)
	if err != nil {
		return Statement{}, err
	}

	periods := make([]PeriodStatement, 0, len(summaries))
	for _, summary := range summaries {
		lines, err := core.ComputeRunningTotals(summary.Entries, account.Kind)
		if err != nil {
			return Statement{}, err
		}
		periods = append(periods, PeriodStatement{Summary: summary, Lines: lines})
	}

	return Statement{
		Account:    account,
		Year:       year,
		Month:      month,
		MonthStart: monthStart,
		MonthEnd:   monthEnd,
		Periods:    periods,
	}, nil
}

func (s *LedgerService) ListDeletedRecords(ctx context.Context, limit int) ([]storage.DeletedRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListDeletedRecords(ctx, limit)
}

func (s *LedgerService) DailyReport(ctx context.Context, day time.Time) (storage.DailySummary, error) {
	return s.store.DailyReport(ctx, day)
}

func (s *LedgerService) ListSettings(ctx context.Context) ([]storage.Setting, error) {
	return s.store.ListSettings(ctx)
}

func (s *LedgerService) PutSetting(ctx context.Context, setting storage.Setting) error {
	if setting.Key == "" {
		return fmt.Errorf("%w: setting key is required", core.ErrValidation)
	}
	return s.store.PutSetting(ctx, setting)
}
