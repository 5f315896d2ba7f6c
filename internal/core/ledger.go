// Package core holds the ledger domain model and the statement aggregator.
//
// This file implements the period bucketing and running-balance logic used
// by monthly statements. Everything here is a pure function over entries the
// caller has already fetched: no I/O, no shared state, safe for concurrent
// use on independent inputs.
package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Period is a contiguous sub-range of a reporting month, inclusive on
	// both ends. Customers get one period per month; suppliers get three
	// (days 1-10, 11-20, 21-end).
	Period struct {
		Label string
		Start time.Time
		End   time.Time
	}

	// PeriodSummary is derived per query and never persisted. Quantity and
	// amount totals accumulate purchase and sale entries only; credit and
	// debit totals accumulate their own kinds. Unknown kinds appear in
	// Entries but contribute to no accumulator.
	PeriodSummary struct {
		Period        Period
		Entries       []Entry
		TotalQuantity decimal.Decimal
		TotalAmount   decimal.Decimal
		CreditAmount  decimal.Decimal
		DebitAmount   decimal.Decimal
	}

	// LedgerLine pairs an entry with its 1-based position and the running
	// balance after applying it. The running total is reconstructed from the
	// query window only: it starts at zero at the window start and will not
	// match the account's cached balance unless the window covers the
	// account's whole history.
	LedgerLine struct {
		Entry        Entry
		Serial       int
		RunningTotal decimal.Decimal
	}
)

// ComputePeriodSummaries buckets one month of entries into periods and
// accumulates per-period totals. Entries must already be filtered to
// [monthStart, monthEnd] and sorted ascending by creation time by the
// caller; bucketing preserves the given order and never re-sorts. Every
// period is present in the result even when empty, and the period order is
// fixed chronologically regardless of the data.
func ComputePeriodSummaries(kind AccountKind, entries []Entry, monthStart, monthEnd time.Time) ([]PeriodSummary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", ErrValidation, kind)
	}
	if monthStart.After(monthEnd) {
		return nil, fmt.Errorf("%w: month start %s after month end %s",
			ErrValidation, monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02"))
	}

	summaries := makePeriods(kind, monthStart, monthEnd)

	for _, e := range entries {
		idx := 0
		if kind == AccountSupplier {
			idx = supplierBucket(e.CreatedAt.Day())
		}
		s := &summaries[idx]
		s.Entries = append(s.Entries, e)

		switch e.Kind {
		case KindPurchase, KindSale:
			s.TotalQuantity = s.TotalQuantity.Add(e.Quantity)
			s.TotalAmount = s.TotalAmount.Add(e.Amount)
		case KindCredit:
			s.CreditAmount = s.CreditAmount.Add(e.Amount)
		case KindDebit:
			s.DebitAmount = s.DebitAmount.Add(e.Amount)
		default:
			// Unrecognized kind: listed above, accumulated nowhere.
		}
	}

	return summaries, nil
}

// ComputeRunningTotals walks one period's entries in the given order and
// computes the post-entry running balance for each. Customer statements
// count sales as owed and credits as received; supplier statements count
// purchases as owed and debits as paid out. Kinds that do not belong to the
// account's side of the ledger contribute zero rather than failing.
func ComputeRunningTotals(entries []Entry, kind AccountKind) ([]LedgerLine, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", ErrValidation, kind)
	}

	lines := make([]LedgerLine, 0, len(entries))
	running := decimal.Zero
	for i, e := range entries {
		running = running.Add(e.BalanceDelta(kind))
		lines = append(lines, LedgerLine{
			Entry:        e,
			Serial:       i + 1,
			RunningTotal: running,
		})
	}
	return lines, nil
}

func makePeriods(kind AccountKind, monthStart, monthEnd time.Time) []PeriodSummary {
	if kind == AccountCustomer {
		return []PeriodSummary{newSummary(
			monthStart.Format("January 2006"), monthStart, monthEnd,
		)}
	}

	year, month := monthStart.Year(), monthStart.Month()
	day := func(d int) time.Time {
		return time.Date(year, month, d, 0, 0, 0, 0, monthStart.Location())
	}
	return []PeriodSummary{
		newSummary("1st - 10th", day(1), day(10)),
		newSummary("11th - 20th", day(11), day(20)),
		newSummary(fmt.Sprintf("21st - %dth", monthEnd.Day()), day(21), monthEnd),
	}
}

func newSummary(label string, start, end time.Time) PeriodSummary {
	return PeriodSummary{
		Period:        Period{Label: label, Start: start, End: end},
		TotalQuantity: decimal.Zero,
		TotalAmount:   decimal.Zero,
		CreditAmount:  decimal.Zero,
		DebitAmount:   decimal.Zero,
	}
}

func supplierBucket(day int) int {
	switch {
	case day <= 10:
		return 0
	case day <= 20:
		return 1
	default:
		return 2
	}
}

// MonthBounds returns the first and last calendar day of the given month,
// both at midnight UTC. Statement queries use these as the inclusive window.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}
