// Package form validates user input locally before anything is sent to the API.
package form

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// ErrValidation matches any Errors value.
var ErrValidation = errors.New("validation failed")

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for Errors.
func (e Errors) Is(target error) bool { return target == ErrValidation }

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err returns e as an error, or nil when there are no messages.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var emailRE = regexp.MustCompile(`\S+@\S+\.\S+`)

// Register holds the sign-up fields.
type Register struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the sign-up form.
func (r Register) Validate() error {
	errs := Errors{}
	if strings.TrimSpace(r.FullName) == "" {
		errs.Add("full_name", "Full name is required")
	}
	validateEmail(errs, r.Email)
	switch {
	case r.Password == "":
		errs.Add("password", "Password is required")
	case len(r.Password) < 6:
		errs.Add("password", "Password must be at least 6 characters")
	}
	if r.Password != r.ConfirmPassword {
		errs.Add("confirm_password", "Passwords do not match")
	}
	return errs.Err()
}

// Login holds the sign-in fields.
type Login struct {
	Email    string
	Password string
}

// Validate checks the sign-in form.
func (l Login) Validate() error {
	errs := Errors{}
	validateEmail(errs, l.Email)
	if l.Password == "" {
		errs.Add("password", "Password is required")
	}
	return errs.Err()
}

func validateEmail(errs Errors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs.Add("email", "Email is required")
	case !emailRE.MatchString(email):
		errs.Add("email", "Email is invalid")
	}
}

// Project holds the raw project form fields as typed by the user.
type Project struct {
	Name                 string
	Address              string
	Status               string
	StartDate            string
	TargetCompletionDate string
	TotalSqft            string
	TotalBudget          string
}

// Parse validates the form and converts it into an API payload.
func (p Project) Parse() (model.ProjectInput, error) {
	errs := Errors{}
	in := model.ProjectInput{
		Name:    strings.TrimSpace(p.Name),
		Address: strings.TrimSpace(p.Address),
	}
	if in.Name == "" {
		errs.Add("name", "Project name is required")
	}
	if p.Status != "" {
		in.Status = model.ParseStatus(p.Status)
	}

	var err error
	if in.StartDate, err = model.ParseDate(strings.TrimSpace(p.StartDate)); err != nil {
		errs.Add("start_date", "Start date must be YYYY-MM-DD")
	}
	if in.TargetCompletionDate, err = model.ParseDate(strings.TrimSpace(p.TargetCompletionDate)); err != nil {
		errs.Add("target_completion_date", "Target date must be YYYY-MM-DD")
	}
	if !in.StartDate.IsZero() && !in.TargetCompletionDate.IsZero() && in.TargetCompletionDate.Before(in.StartDate.Time) {
		errs.Add("target_completion_date", "Target date must not be before the start date")
	}

	if s := strings.TrimSpace(p.TotalSqft); s != "" {
		n, err := strconv.Atoi(s)
		switch {
		case err != nil:
			errs.Add("total_sqft", "Square footage must be a number")
		case n < 0:
			errs.Add("total_sqft", "Square footage must not be negative")
		default:
			in.TotalSqft = &n
		}
	}

	if s := strings.TrimSpace(p.TotalBudget); s != "" {
		d, msg := parseMoney(s, "Budget")
		if msg != "" {
			errs.Add("total_budget", msg)
		} else {
			in.TotalBudget = decimal.NewNullDecimal(d)
		}
	}

	if err := errs.Err(); err != nil {
		return model.ProjectInput{}, err
	}
	return in, nil
}

// Item holds the raw forecast line item fields.
type Item struct {
	Category      string
	Description   string
	EstimatedCost string
	ActualCost    string
	Progress      string
	Status        string
	StartDate     string
	EndDate       string
}

// Parse validates the item form and applies it on top of base.
func (f Item) Parse(base model.ForecastItem) (model.ForecastItem, error) {
	errs := Errors{}
	it := base

	if f.Category != "" || base.Category == "" {
		it.Category = strings.TrimSpace(f.Category)
		if it.Category == "" {
			errs.Add("category", "Category is required")
		}
	}
	if f.Description != "" {
		it.Description = strings.TrimSpace(f.Description)
	}
	if f.EstimatedCost != "" {
		if d, msg := parseMoney(f.EstimatedCost, "Estimated cost"); msg != "" {
			errs.Add("estimated_cost", msg)
		} else {
			it.EstimatedCost = d
		}
	}
	if f.ActualCost != "" {
		if d, msg := parseMoney(f.ActualCost, "Actual cost"); msg != "" {
			errs.Add("actual_cost", msg)
		} else {
			it.ActualCost = d
		}
	}
	if f.Progress != "" {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(f.Progress), "%"))
		if err != nil || n < 0 || n > 100 {
			errs.Add("progress_percent", "Progress must be between 0 and 100")
		} else {
			it.ProgressPercent = n
		}
	}
	if f.Status != "" {
		it.Status = string(model.ParseStatus(f.Status))
	}
	if f.StartDate != "" {
		d, err := model.ParseDate(strings.TrimSpace(f.StartDate))
		if err != nil {
			errs.Add("start_date", "Start date must be YYYY-MM-DD")
		}
		it.StartDate = d
	}
	if f.EndDate != "" {
		d, err := model.ParseDate(strings.TrimSpace(f.EndDate))
		if err != nil {
			errs.Add("end_date", "End date must be YYYY-MM-DD")
		}
		it.EndDate = d
	}

	if err := errs.Err(); err != nil {
		return model.ForecastItem{}, err
	}
	return it, nil
}

// Amount parses a single non-negative money field.
func Amount(field, label, s string) (decimal.Decimal, error) {
	d, msg := parseMoney(s, label)
	if msg != "" {
		return decimal.Zero, Errors{field: msg}
	}
	return d, nil
}

// parseMoney accepts "1,250.50" and "$1250.5". It returns a message on failure.
func parseMoney(s, label string) (decimal.Decimal, string) {
	clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, label + " is required"
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, label + " must be a number"
	}
	if d.IsNegative() {
		return decimal.Zero, label + " must not be negative"
	}
	return d, ""
}
