package model

import "github.com/shopspring/decimal"

// Expense is a dated record of money actually spent, optionally tied to a
// forecast line item.
type Expense struct {
	ID                 int64           `json:"id,omitempty"`
	ProjectID          int64           `json:"project_id"`
	ForecastLineItemID *int64          `json:"forecast_line_item_id"`
	Vendor             string          `json:"vendor,omitempty"`
	AmountSpent        decimal.Decimal `json:"amount_spent"`
	Date               Date            `json:"date"`
	ReceiptURL         string          `json:"receipt_url,omitempty"`
}

// LinkedTo reports whether the expense belongs to the given line item.
func (e Expense) LinkedTo(itemID int64) bool {
	return e.ForecastLineItemID != nil && *e.ForecastLineItemID == itemID
}

// Key implements the state collection key.
func (e Expense) Key() int64 { return e.ID }

// Draw tracks lender draws and cash on hand for a project.
type Draw struct {
	ID            int64           `json:"id,omitempty"`
	ProjectID     int64           `json:"project_id"`
	CashOnHand    decimal.Decimal `json:"cash_on_hand"`
	LastDrawDate  Date            `json:"last_draw_date"`
	DrawTriggered bool            `json:"draw_triggered"`
	Notes         string          `json:"notes,omitempty"`
}

// Key implements the state collection key.
func (d Draw) Key() int64 { return d.ID }
