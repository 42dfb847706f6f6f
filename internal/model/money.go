package model

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// lenientMoney decodes a money amount that may arrive as a number, a numeric
// string, null or a blank string. Null and blank decode to zero.
type lenientMoney decimal.Decimal

func (m *lenientMoney) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*m = lenientMoney(decimal.Zero)
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if len(bytes.TrimSpace([]byte(s))) == 0 {
			*m = lenientMoney(decimal.Zero)
			return nil
		}
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*m = lenientMoney(d)
	return nil
}

func (m lenientMoney) value() decimal.Decimal { return decimal.Decimal(m) }

type forecastItemFields ForecastItem

// UnmarshalJSON accepts blank and null money fields as zero.
func (i *ForecastItem) UnmarshalJSON(data []byte) error {
	aux := struct {
		*forecastItemFields
		EstimatedCost lenientMoney `json:"estimated_cost"`
		ActualCost    lenientMoney `json:"actual_cost"`
	}{
		forecastItemFields: (*forecastItemFields)(i),
		EstimatedCost:      lenientMoney(i.EstimatedCost),
		ActualCost:         lenientMoney(i.ActualCost),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.EstimatedCost = aux.EstimatedCost.value()
	i.ActualCost = aux.ActualCost.value()
	return nil
}

type expenseFields Expense

// UnmarshalJSON accepts a blank or null amount as zero.
func (e *Expense) UnmarshalJSON(data []byte) error {
	aux := struct {
		*expenseFields
		AmountSpent lenientMoney `json:"amount_spent"`
	}{expenseFields: (*expenseFields)(e), AmountSpent: lenientMoney(e.AmountSpent)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.AmountSpent = aux.AmountSpent.value()
	return nil
}

type drawFields Draw

// UnmarshalJSON accepts a blank or null cash-on-hand as zero.
func (d *Draw) UnmarshalJSON(data []byte) error {
	aux := struct {
		*drawFields
		CashOnHand lenientMoney `json:"cash_on_hand"`
	}{drawFields: (*drawFields)(d), CashOnHand: lenientMoney(d.CashOnHand)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.CashOnHand = aux.CashOnHand.value()
	return nil
}
