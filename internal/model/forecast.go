package model

import "github.com/shopspring/decimal"

// ForecastItem is a planned budget line for a project.
//
// Status keeps the spelling the server returned; use Canonical for logic.
type ForecastItem struct {
	ID              int64           `json:"id,omitempty"`
	ProjectID       int64           `json:"project_id"`
	Category        string          `json:"category"`
	Description     string          `json:"description,omitempty"`
	Unit            string          `json:"unit,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	ActualCost      decimal.Decimal `json:"actual_cost"`
	ProgressPercent int             `json:"progress_percent"`
	Status          string          `json:"status,omitempty"`
	StartDate       Date            `json:"start_date"`
	EndDate         Date            `json:"end_date"`
}

// Canonical returns the normalized status of the item.
func (i ForecastItem) Canonical() Status {
	return ParseStatus(i.Status)
}

// Completed reports whether the item is finished.
func (i ForecastItem) Completed() bool {
	return i.Canonical() == StatusCompleted
}

// Key implements the state collection key.
func (i ForecastItem) Key() int64 { return i.ID }
