package http

import (
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/core"
	"milkbook/internal/services"
	"milkbook/internal/storage"
)

// Wire types. Decimals marshal as quoted strings, which keeps amounts
// exact across the API boundary.

type accountRequest struct {
	Code     string          `json:"code"`
	Kind     string          `json:"kind"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Address  string          `json:"address"`
	MilkRate decimal.Decimal `json:"milk_rate"`
}

type accountResponse struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	MilkRate  decimal.Decimal `json:"milk_rate"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type entryRequest struct {
	Kind     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
	Date     string          `json:"date"` // YYYY-MM-DD, defaults to today
}

type entryResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

type deleteRequest struct {
	Reason    string `json:"reason"`
	DeletedBy string `json:"deleted_by"`
}

type ledgerLineResponse struct {
	Serial       int             `json:"serial"`
	RunningTotal decimal.Decimal `json:"running_total"`
	entryResponse
}

type periodResponse struct {
	Label         string               `json:"label"`
	Start         time.Time            `json:"start"`
	End           time.Time            `json:"end"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	CreditAmount  decimal.Decimal      `json:"credit_amount"`
	DebitAmount   decimal.Decimal      `json:"debit_amount"`
	Lines         []ledgerLineResponse `json:"lines"`
}

type statementResponse struct {
	Account    accountResponse  `json:"account"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	MonthStart time.Time        `json:"month_start"`
	MonthEnd   time.Time        `json:"month_end"`
	Periods    []periodResponse `json:"periods"`
}

type settingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

type templateRequest struct {
	Name     string `json:"name"`
	Audience string `json:"audience"`
	Body     string `json:"body"`
}

type sendSMSRequest struct {
	AccountID  string `json:"account_id"`
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

type broadcastRequest struct {
	Audience   string `json:"audience"`
	TemplateID string `json:"template_id"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Kind:      string(a.Kind),
		Name:      a.Name,
		Phone:     a.Phone,
		Address:   a.Address,
		MilkRate:  a.MilkRate,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Quantity:  e.Quantity,
		Rate:      e.Rate,
		Amount:    e.Amount,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

func toStatementResponse(stmt services.Statement) statementResponse {
	periods := make([]periodResponse, 0, len(stmt.Periods))
	for _, p := range stmt.Periods {
		lines := make([]ledgerLineResponse, 0, len(p.Lines))
		for _, line := range p.Lines {
			lines = append(lines, ledgerLineResponse{
				Serial:        line.Serial,
				RunningTotal:  line.RunningTotal,
				entryResponse: toEntryResponse(line.Entry),
			})
		}
		periods = append(periods, periodResponse{
			Label:         p.Summary.Period.Label,
			Start:         p.Summary.Period.Start,
			End:           p.Summary.Period.End,
			TotalQuantity: p.Summary.TotalQuantity,
			TotalAmount:   p.Summary.TotalAmount,
			CreditAmount:  p.Summary.CreditAmount,
			DebitAmount:   p.Summary.DebitAmount,
			Lines:         lines,
		})
	}

	return statementResponse{
		Account:    toAccountResponse(stmt.Account),
		Year:       stmt.Year,
		Month:      int(stmt.Month),
		MonthStart: stmt.MonthStart,
		MonthEnd:   stmt.MonthEnd,
		Periods:    periods,
	}
}

type dailyReportResponse struct {
	Date          string          `json:"date"`
	TotalPurchase decimal.Decimal `json:"total_purchase"`
	TotalSale     decimal.Decimal `json:"total_sale"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	Net           decimal.Decimal `json:"net"`
}

func toDailyReportResponse(d storage.DailySummary) dailyReportResponse {
	return dailyReportResponse{
		Date:          d.Date.Format("2006-01-02"),
		TotalPurchase: d.TotalPurchase,
		TotalSale:     d.TotalSale,
		TotalCredit:   d.TotalCredit,
		TotalDebit:    d.TotalDebit,
		Net:           d.Net,
	}
}
