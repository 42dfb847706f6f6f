package model

import "github.com/shopspring/decimal"

func init() {
	// The API expects bare JSON numbers for money fields.
	decimal.MarshalJSONWithoutQuotes = true
}

// Project is a construction project with a fixed total budget.
type Project struct {
	ID                   int64               `json:"id"`
	Name                 string              `json:"name"`
	Address              string              `json:"address,omitempty"`
	Status               Status              `json:"status,omitempty"`
	StartDate            Date                `json:"start_date"`
	TargetCompletionDate Date                `json:"target_completion_date"`
	TotalSqft            *int                `json:"total_sqft,omitempty"`
	TotalBudget          decimal.NullDecimal `json:"total_budget"`
}

// Budget returns the total budget, treating an unset budget as zero.
func (p Project) Budget() decimal.Decimal {
	if !p.TotalBudget.Valid {
		return decimal.Zero
	}
	return p.TotalBudget.Decimal
}

// Input converts the project into a create/replace payload.
func (p Project) Input() ProjectInput {
	return ProjectInput{
		Name:                 p.Name,
		Address:              p.Address,
		Status:               p.Status,
		StartDate:            p.StartDate,
		TargetCompletionDate: p.TargetCompletionDate,
		TotalSqft:            p.TotalSqft,
		TotalBudget:          p.TotalBudget,
	}
}

// ProjectInput is the body for creating or fully replacing a project.
type ProjectInput struct {
	Name                 string              `json:"name"`
	Address              string              `json:"address,omitempty"`
	Status               Status              `json:"status,omitempty"`
	StartDate            Date                `json:"start_date"`
	TargetCompletionDate Date                `json:"target_completion_date"`
	TotalSqft            *int                `json:"total_sqft,omitempty"`
	TotalBudget          decimal.NullDecimal `json:"total_budget"`
}

// ProjectPatch is a partial project update. Nil fields are not sent.
type ProjectPatch struct {
	Name        *string          `json:"name,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Status      *Status          `json:"status,omitempty"`
	TotalSqft   *int             `json:"total_sqft,omitempty"`
	TotalBudget *decimal.Decimal `json:"total_budget,omitempty"`
}

// StatusPatch returns a patch carrying only the given status.
func StatusPatch(s Status) ProjectPatch {
	return ProjectPatch{Status: &s}
}
